package dto

import "proctorfeed/internal/model"

// TimelineData is the dashboard response for the timeline view.
type TimelineData struct {
	Points []model.TimelinePoint `json:"points"`
	Active string                `json:"active,omitempty"`
	Detail *model.Detail         `json:"detail,omitempty"`
}
