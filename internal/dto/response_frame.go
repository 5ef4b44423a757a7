package dto

// ResponseFrame is the payload of an inbound "response_frame" event.
type ResponseFrame struct {
	Image    string `json:"image"`
	Cheating bool   `json:"cheating"`
}
