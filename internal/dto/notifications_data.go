package dto

import "proctorfeed/internal/model"

// NotificationsData lists notifications newest-first for the dashboard.
type NotificationsData struct {
	Notifications []model.Notification `json:"notifications"`
	Length        int                  `json:"length"`
}
