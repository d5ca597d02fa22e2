package services

import (
	"regexp"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
)

var clockTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// IsClockTime reports whether value is a 24-hour HH:MM time.
func IsClockTime(value string) bool {
	return clockTimePattern.MatchString(value)
}

func parseCalendarDate(raw string, location *time.Location) (time.Time, bool) {
	if parsed, err := time.ParseInLocation("2006-01-02", raw, location); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return models.DayStart(parsed, location), true
	}
	return time.Time{}, false
}
