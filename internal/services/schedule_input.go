package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
)

var ErrInvalidScheduleInput = errors.New("invalid schedule input")

// ScheduleInput is the wire shape of a schedule body. It accepts both the
// current keys (medicineId, times) and the legacy ones (medicine, time).
// Nil slices and pointers mean "not provided".
type ScheduleInput struct {
	MedicineID uint
	Medicine   uint
	Times      []string
	Time       string
	Days       []string
	Frequency  string
	IsActive   *bool
	StartDate  *string
	EndDate    *string
}

// NormalizedSchedule is a ScheduleInput with legacy keys resolved and every
// value validated. Has* flags report which fields were provided.
type NormalizedSchedule struct {
	MedicineID   uint
	Times        []string
	HasTimes     bool
	Days         []string
	HasDays      bool
	Frequency    string
	IsActive     *bool
	StartDate    *time.Time
	EndDate      *time.Time
	HasEndDate   bool
	HasFrequency bool
}

// NormalizeScheduleInput resolves medicineId over medicine and times over
// time, trims, validates HH:MM entries, deduplicates and sorts the times, and
// canonicalizes the days to full weekday names.
func NormalizeScheduleInput(input ScheduleInput, location *time.Location) (NormalizedSchedule, error) {
	normalized := NormalizedSchedule{MedicineID: input.MedicineID}
	if normalized.MedicineID == 0 {
		normalized.MedicineID = input.Medicine
	}

	rawTimes := input.Times
	if rawTimes == nil && strings.TrimSpace(input.Time) != "" {
		rawTimes = []string{input.Time}
	}
	if rawTimes != nil {
		times, err := normalizeClockTimes(rawTimes)
		if err != nil {
			return NormalizedSchedule{}, err
		}
		normalized.Times = times
		normalized.HasTimes = true
	}

	if input.Days != nil {
		days, err := normalizeWeekdays(input.Days)
		if err != nil {
			return NormalizedSchedule{}, err
		}
		normalized.Days = days
		normalized.HasDays = true
	}

	if frequency := strings.ToLower(strings.TrimSpace(input.Frequency)); frequency != "" {
		switch frequency {
		case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyCustom:
			normalized.Frequency = frequency
			normalized.HasFrequency = true
		default:
			return NormalizedSchedule{}, fmt.Errorf("%w: frequency must be daily, weekly or custom", ErrInvalidScheduleInput)
		}
	}

	normalized.IsActive = input.IsActive

	if input.StartDate != nil && strings.TrimSpace(*input.StartDate) != "" {
		start, ok := parseCalendarDate(strings.TrimSpace(*input.StartDate), location)
		if !ok {
			return NormalizedSchedule{}, fmt.Errorf("%w: invalid startDate", ErrInvalidScheduleInput)
		}
		normalized.StartDate = &start
	}
	if input.EndDate != nil {
		normalized.HasEndDate = true
		if raw := strings.TrimSpace(*input.EndDate); raw != "" {
			end, ok := parseCalendarDate(raw, location)
			if !ok {
				return NormalizedSchedule{}, fmt.Errorf("%w: invalid endDate", ErrInvalidScheduleInput)
			}
			normalized.EndDate = &end
		}
	}
	if normalized.StartDate != nil && normalized.EndDate != nil && normalized.EndDate.Before(*normalized.StartDate) {
		return NormalizedSchedule{}, fmt.Errorf("%w: endDate is before startDate", ErrInvalidScheduleInput)
	}

	return normalized, nil
}

func normalizeClockTimes(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	times := make([]string, 0, len(raw))
	for _, entry := range raw {
		value := strings.TrimSpace(entry)
		if value == "" {
			continue
		}
		if !IsClockTime(value) {
			return nil, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidScheduleInput, value)
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		times = append(times, value)
	}
	sort.Strings(times)
	return times, nil
}

func normalizeWeekdays(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	days := make([]string, 0, len(raw))
	for _, entry := range raw {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		day, ok := models.CanonicalWeekday(entry)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidScheduleInput, strings.TrimSpace(entry))
		}
		if _, duplicate := seen[day]; duplicate {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days, nil
}
