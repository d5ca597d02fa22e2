package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexibleID accepts a JSON number, a numeric string or null.
type flexibleID uint

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*id = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", string(data))
	}
	*id = flexibleID(value)
	return nil
}

// flexibleReference accepts an id or an object carrying an "id" key, which is
// how populated references are echoed back by older clients.
type flexibleReference uint

func (ref *flexibleReference) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var object struct {
			ID flexibleID `json:"id"`
		}
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return err
		}
		*ref = flexibleReference(object.ID)
		return nil
	}
	var id flexibleID
	if err := id.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	*ref = flexibleReference(id)
	return nil
}

type credentialsInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type medicinePayload struct {
	Name        *string `json:"name"`
	Dosage      *string `json:"dosage"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Frequency   *int    `json:"frequency"`
}

type schedulePayload struct {
	MedicineID flexibleID        `json:"medicineId"`
	Medicine   flexibleReference `json:"medicine"`
	Times      []string          `json:"times"`
	Time       string            `json:"time"`
	Days       []string          `json:"days"`
	Frequency  string            `json:"frequency"`
	IsActive   *bool             `json:"isActive"`
	StartDate  *string           `json:"startDate"`
	EndDate    *string           `json:"endDate"`
}

type intakePayload struct {
	ScheduleID    flexibleID        `json:"scheduleId"`
	Schedule      flexibleReference `json:"schedule"`
	MedicineID    flexibleID        `json:"medicineId"`
	Medicine      flexibleReference `json:"medicine"`
	ScheduledTime string            `json:"scheduledTime"`
	Time          string            `json:"time"`
	Status        string            `json:"status"`
	Notes         string            `json:"notes"`
}

type notificationPayload struct {
	Title         string          `json:"title"`
	Body          string          `json:"body"`
	Medicine      json.RawMessage `json:"medicine"`
	ScheduleID    flexibleID      `json:"scheduleId"`
	ScheduledTime string          `json:"scheduledTime"`
}
