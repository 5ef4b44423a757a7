package model

type NotificationKind string

const (
	KindSystem NotificationKind = "system"
	KindAlert  NotificationKind = "alert"
)

// Notification is one entry of the notification list.
// System entries are plain text; alert entries carry a locator and can be deleted.
type Notification struct {
	ID          string           `json:"id"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	Locator     string           `json:"url,omitempty"`
	DisplayTime string           `json:"timestamp,omitempty"`
	Epoch       int64            `json:"epoch,omitempty"`
}

// Deletable reports whether the entry may be removed by the user.
func (n Notification) Deletable() bool {
	return n.Kind == KindAlert
}

// AlertNotification converts an alert into its list entry.
func AlertNotification(a SnapshotAlert) Notification {
	return Notification{
		ID:          a.ID,
		Kind:        KindAlert,
		Message:     a.Message,
		Locator:     a.URL,
		DisplayTime: a.DisplayTime,
		Epoch:       a.Epoch,
	}
}
