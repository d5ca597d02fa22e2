package models

import (
	"strings"
	"time"
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyCustom = "custom"
)

type Schedule struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"userId"`
	MedicineID uint       `gorm:"not null;index" json:"medicineId"`
	Times      []string   `gorm:"serializer:json" json:"times"`
	Days       []string   `gorm:"serializer:json" json:"days"`
	Frequency  string     `gorm:"not null;default:daily" json:"frequency"`
	IsActive   bool       `gorm:"not null;default:true" json:"isActive"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    *time.Time `json:"endDate"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// ActiveOn reports whether the schedule is enabled and day falls inside its
// start/end bounds. day is expected to be a day start.
func (schedule Schedule) ActiveOn(day time.Time) bool {
	if !schedule.IsActive {
		return false
	}
	if !schedule.StartDate.IsZero() && day.Before(DayStart(schedule.StartDate, day.Location())) {
		return false
	}
	if schedule.EndDate != nil && day.After(DayStart(*schedule.EndDate, day.Location())) {
		return false
	}
	return true
}

// CanonicalWeekday accepts a full English weekday name or its 3-letter
// abbreviation in any case and returns the full name.
func CanonicalWeekday(raw string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if len(value) < 3 {
		return "", false
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := day.String()
		lower := strings.ToLower(name)
		if value == lower || value == lower[:3] {
			return name, true
		}
	}
	return "", false
}

func DayStart(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.Local
	}
	local := value.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}
