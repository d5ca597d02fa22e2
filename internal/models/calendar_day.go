package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const CalendarDayLayout = "2006-01-02"

// CalendarDay is a date without a time of day, held as "2006-01-02". It is
// bound to SQL as a plain string so drivers never shift it across zones.
type CalendarDay string

// DayOf returns the calendar day holding value in location.
func DayOf(value time.Time, location *time.Location) CalendarDay {
	if location == nil {
		location = time.Local
	}
	return CalendarDay(value.In(location).Format(CalendarDayLayout))
}

func (day CalendarDay) Value() (driver.Value, error) {
	if _, err := time.Parse(CalendarDayLayout, string(day)); err != nil {
		return nil, fmt.Errorf("invalid calendar day %q", string(day))
	}
	return string(day), nil
}

// Scan accepts what the supported drivers return for a DATE column: a
// time.Time at midnight UTC, or text starting with the date.
func (day *CalendarDay) Scan(value any) error {
	switch typed := value.(type) {
	case time.Time:
		*day = CalendarDay(typed.Format(CalendarDayLayout))
		return nil
	case string:
		return day.scanText(typed)
	case []byte:
		return day.scanText(string(typed))
	case nil:
		*day = ""
		return nil
	default:
		return fmt.Errorf("unsupported calendar day value %T", value)
	}
}

func (day *CalendarDay) scanText(text string) error {
	if len(text) < len(CalendarDayLayout) {
		return fmt.Errorf("invalid calendar day %q", text)
	}
	prefix := text[:len(CalendarDayLayout)]
	if _, err := time.Parse(CalendarDayLayout, prefix); err != nil {
		return fmt.Errorf("invalid calendar day %q", text)
	}
	*day = CalendarDay(prefix)
	return nil
}
