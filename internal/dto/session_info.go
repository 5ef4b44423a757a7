package dto

// SessionInfo describes the capture session and detection state.
type SessionInfo struct {
	Running   bool        `json:"running"`
	SessionID string      `json:"session_id,omitempty"`
	Device    string      `json:"device,omitempty"`
	Connected bool        `json:"connected"`
	Status    StatusBadge `json:"status"`
}

// StatusBadge is the cheating indicator with its visual emphasis.
type StatusBadge struct {
	Label    string `json:"label"`
	Cheating bool   `json:"cheating"`
	Color    string `json:"color"`
	Bold     bool   `json:"bold"`
}
