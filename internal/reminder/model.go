package reminder

import "time"

const ReminderTitle = "Medicine Reminder"

// ScheduleRecord is a schedule as the API returns it. Older producers only
// fill Time; newer ones fill Times.
type ScheduleRecord struct {
	ID         uint     `json:"id"`
	MedicineID uint     `json:"medicineId"`
	Times      []string `json:"times"`
	Time       string   `json:"time"`
	Days       []string `json:"days"`
}

// Schedule is the canonical shape the planner consumes.
type Schedule struct {
	ID         uint
	MedicineID uint
	Times      []string
	Days       []string
}

type Intake struct {
	ScheduleID    uint   `json:"scheduleId"`
	ScheduledTime string `json:"scheduledTime"`
}

type Medicine struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Type   string `json:"type,omitempty"`
	Image  string `json:"image,omitempty"`
}

// Notification is one fired reminder.
type Notification struct {
	ID            string    `json:"-"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Medicine      *Medicine `json:"medicine"`
	ScheduleID    uint      `json:"scheduleId"`
	ScheduledTime string    `json:"scheduledTime"`
	CreatedAt     time.Time `json:"-"`
}

type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
	PermissionUnsupported
)

func (permission Permission) String() string {
	switch permission {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionUnsupported:
		return "unsupported"
	default:
		return "undetermined"
	}
}

type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)
