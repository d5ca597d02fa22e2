package models

import "time"

const (
	IntakeTaken   = "taken"
	IntakeMissed  = "missed"
	IntakeSkipped = "skipped"
)

type Intake struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex:uidx_intake_user_schedule_date" json:"userId"`
	ScheduleID    uint        `gorm:"not null;uniqueIndex:uidx_intake_user_schedule_date" json:"scheduleId"`
	MedicineID    uint        `gorm:"not null;index" json:"medicineId"`
	ScheduledTime string      `gorm:"not null" json:"scheduledTime"`
	TakenAt       time.Time   `gorm:"not null" json:"takenAt"`
	Status        string      `gorm:"not null;default:taken" json:"status"`
	Notes         string      `json:"notes"`
	Date          CalendarDay `gorm:"type:date;not null;index;uniqueIndex:uidx_intake_user_schedule_date" json:"date"`
}
