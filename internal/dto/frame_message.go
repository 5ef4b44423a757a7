package dto

// FrameMessage is the payload of an outbound "frame" event.
type FrameMessage struct {
	Image string `json:"image"`
}
