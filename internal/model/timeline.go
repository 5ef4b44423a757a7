package model

// TimelinePoint places one alert on the timeline. Position is derived, 0-100.
type TimelinePoint struct {
	ID          string  `json:"id"`
	Locator     string  `json:"url"`
	DisplayTime string  `json:"timestamp"`
	Epoch       int64   `json:"epoch"`
	Position    float64 `json:"position"`
	Active      bool    `json:"active"`
}

// TimelinePointFromAlert materializes the point for an alert.
func TimelinePointFromAlert(a SnapshotAlert) TimelinePoint {
	return TimelinePoint{
		ID:          a.ID,
		Locator:     a.URL,
		DisplayTime: a.DisplayTime,
		Epoch:       a.Epoch,
	}
}

// Detail is what the detail panel shows for the active point.
type Detail struct {
	ID        string `json:"id"`
	ImageURL  string `json:"image_url"`
	Timestamp string `json:"timestamp"`
}
