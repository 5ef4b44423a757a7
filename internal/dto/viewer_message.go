package dto

// ViewerMessage is pushed to dashboard viewers over /api/view.
type ViewerMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
