package dto

import "encoding/json"

// CheatingNotification is the payload of an inbound "cheating_notification" event.
// Timestamp is either an RFC 3339 string or epoch milliseconds.
type CheatingNotification struct {
	ID        string          `json:"id,omitempty"`
	Message   string          `json:"message"`
	URL       string          `json:"url"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}
