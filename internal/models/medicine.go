package models

import (
	"strings"
	"time"
)

const (
	MedicineTablet   = "Tablet"
	MedicineCapsule  = "Capsule"
	MedicineSyrup    = "Syrup"
	MedicineOintment = "Ointment"
	MedicineOther    = "Other"
)

type Medicine struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	Name        string    `gorm:"not null" json:"name"`
	Dosage      string    `gorm:"not null" json:"dosage"`
	Type        string    `gorm:"not null;default:Tablet" json:"type"`
	Description string    `json:"description"`
	Frequency   int       `gorm:"not null;default:1" json:"frequency"`
	Image       string    `json:"image"`
	ImageKey    string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MedicineFilter narrows and orders a medicine listing. Limit 0 means no limit.
type MedicineFilter struct {
	Search     string
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

var medicineTypeAliases = map[string]string{
	"tablet":   MedicineTablet,
	"capsule":  MedicineCapsule,
	"kapsul":   MedicineCapsule,
	"syrup":    MedicineSyrup,
	"sirup":    MedicineSyrup,
	"ointment": MedicineOintment,
	"salep":    MedicineOintment,
	"other":    MedicineOther,
	"lainnya":  MedicineOther,
}

// CanonicalMedicineType maps a type label, including the legacy Indonesian
// labels, onto the enum. Empty input yields Tablet.
func CanonicalMedicineType(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return MedicineTablet, true
	}
	canonical, ok := medicineTypeAliases[key]
	return canonical, ok
}
