package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultNotificationTitle = "Reminder"
	NotificationHistoryLimit = 200
	NotificationRetention    = 7 * 24 * time.Hour
)

type Notification struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"userId"`
	Title         string         `gorm:"not null;default:Reminder" json:"title"`
	Body          string         `gorm:"not null" json:"body"`
	Medicine      datatypes.JSON `json:"medicine"`
	ScheduleID    *uint          `json:"scheduleId"`
	ScheduledTime string         `json:"scheduledTime"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"createdAt"`
}
