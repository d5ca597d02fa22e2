package reminder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Pending is one reminder still to fire today.
type Pending struct {
	Key        string
	ScheduleID uint
	MedicineID uint
	Time       string
	At         time.Time
}

// NormalizeSchedule converts an API record into the canonical shape.
// Non-blank Times win over the legacy Time field; entries that are not
// HH:MM are dropped.
func NormalizeSchedule(record ScheduleRecord) Schedule {
	raw := record.Times
	if !hasNonBlank(raw) {
		raw = []string{record.Time}
	}

	times := make([]string, 0, len(raw))
	for _, value := range raw {
		value = strings.TrimSpace(value)
		if _, _, ok := parseClock(value); ok {
			times = append(times, value)
		}
	}

	days := make([]string, 0, len(record.Days))
	for _, day := range record.Days {
		if day = strings.TrimSpace(day); day != "" {
			days = append(days, day)
		}
	}

	return Schedule{ID: record.ID, MedicineID: record.MedicineID, Times: times, Days: days}
}

// DueToday reports whether the schedule applies on weekday. An empty day set
// means every day; names match in full or as a three letter abbreviation.
func DueToday(schedule Schedule, weekday time.Weekday) bool {
	if len(schedule.Days) == 0 {
		return true
	}
	name := weekday.String()
	for _, day := range schedule.Days {
		if strings.EqualFold(day, name) || strings.EqualFold(day, name[:3]) {
			return true
		}
	}
	return false
}

func DedupKey(scheduleID uint, scheduledTime string) string {
	return fmt.Sprintf("%d-%s", scheduleID, scheduledTime)
}

// Plan returns the reminders still pending today, ordered by fire time.
// Instants at or before now and schedule-times with a recorded intake are
// skipped.
func Plan(now time.Time, schedules []Schedule, intakes []Intake) []Pending {
	taken := make(map[string]struct{}, len(intakes))
	for _, intake := range intakes {
		taken[DedupKey(intake.ScheduleID, strings.TrimSpace(intake.ScheduledTime))] = struct{}{}
	}

	weekday := now.Weekday()
	pending := make([]Pending, 0)
	seen := make(map[string]struct{})
	for _, schedule := range schedules {
		if !DueToday(schedule, weekday) {
			continue
		}
		for _, clock := range schedule.Times {
			hour, minute, ok := parseClock(clock)
			if !ok {
				continue
			}
			at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if !at.After(now) {
				continue
			}
			key := DedupKey(schedule.ID, clock)
			if _, done := taken[key]; done {
				continue
			}
			if _, duplicate := seen[key]; duplicate {
				continue
			}
			seen[key] = struct{}{}
			pending = append(pending, Pending{
				Key:        key,
				ScheduleID: schedule.ID,
				MedicineID: schedule.MedicineID,
				Time:       clock,
				At:         at,
			})
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].At.Before(pending[j].At)
	})
	return pending
}

// ComposeBody builds the reminder text; medicine may be nil.
func ComposeBody(medicine *Medicine, scheduledTime string) string {
	if medicine == nil {
		return fmt.Sprintf("Time for scheduled medicine at %s", scheduledTime)
	}
	if dosage := strings.TrimSpace(medicine.Dosage); dosage != "" {
		return fmt.Sprintf("Time to take %s (%s) at %s", medicine.Name, dosage, scheduledTime)
	}
	return fmt.Sprintf("Time to take %s at %s", medicine.Name, scheduledTime)
}

func parseClock(value string) (int, int, bool) {
	hourText, minuteText, found := strings.Cut(value, ":")
	if !found || hourText == "" || len(minuteText) != 2 || len(hourText) > 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func hasNonBlank(values []string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}
