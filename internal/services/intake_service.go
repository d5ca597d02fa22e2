package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/gorm"
)

var (
	ErrIntakeNotFound     = errors.New("intake not found")
	ErrInvalidIntakeInput = errors.New("invalid intake input")
	ErrSaveIntakeFailed   = errors.New("save intake failed")
)

const (
	IntakeHistoryLimit = 50
	maxIntakeNotes     = 1000
)

type IntakeRepository interface {
	FindByUserScheduleDate(userID uint, scheduleID uint, day models.CalendarDay) (models.Intake, error)
	Create(intake *models.Intake) error
	ListByUserDay(userID uint, day models.CalendarDay) ([]models.Intake, error)
	ListRecentByUser(userID uint, limit int) ([]models.Intake, error)
	DeleteForUser(intakeID uint, userID uint) error
}

type ScheduleLookup interface {
	FindByIDForUser(scheduleID uint, userID uint) (models.Schedule, error)
}

// IntakeInput accepts the current keys and the legacy schedule, medicine and
// time keys.
type IntakeInput struct {
	ScheduleID    uint
	Schedule      uint
	MedicineID    uint
	Medicine      uint
	ScheduledTime string
	Time          string
	Status        string
	Notes         string
}

type IntakeDetails struct {
	Intake   models.Intake
	Medicine *models.Medicine
}

type IntakeService struct {
	intakes   IntakeRepository
	schedules ScheduleLookup
	medicines MedicineLookup
	location  *time.Location
	now       func() time.Time
}

func NewIntakeService(intakes IntakeRepository, schedules ScheduleLookup, medicines MedicineLookup, location *time.Location) *IntakeService {
	if location == nil {
		location = time.Local
	}
	return &IntakeService{
		intakes:   intakes,
		schedules: schedules,
		medicines: medicines,
		location:  location,
		now:       time.Now,
	}
}

// RecordIntake is idempotent per (user, schedule, calendar day): when an
// intake already exists it is returned with created=false.
func (service *IntakeService) RecordIntake(userID uint, input IntakeInput) (IntakeDetails, bool, error) {
	scheduleID := firstNonZero(input.ScheduleID, input.Schedule)
	medicineID := firstNonZero(input.MedicineID, input.Medicine)
	scheduledTime := strings.TrimSpace(input.ScheduledTime)
	if scheduledTime == "" {
		scheduledTime = strings.TrimSpace(input.Time)
	}
	if scheduleID == 0 || medicineID == 0 || scheduledTime == "" {
		return IntakeDetails{}, false, fmt.Errorf("%w: scheduleId, medicineId and time are required", ErrInvalidIntakeInput)
	}
	if !IsClockTime(scheduledTime) {
		return IntakeDetails{}, false, fmt.Errorf("%w: time must be HH:MM", ErrInvalidIntakeInput)
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	switch status {
	case "":
		status = models.IntakeTaken
	case models.IntakeTaken, models.IntakeMissed, models.IntakeSkipped:
	default:
		return IntakeDetails{}, false, fmt.Errorf("%w: status must be taken, missed or skipped", ErrInvalidIntakeInput)
	}
	notes := strings.TrimSpace(input.Notes)
	if len([]rune(notes)) > maxIntakeNotes {
		return IntakeDetails{}, false, fmt.Errorf("%w: notes are too long", ErrInvalidIntakeInput)
	}

	if _, err := service.schedules.FindByIDForUser(scheduleID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return IntakeDetails{}, false, ErrScheduleNotFound
		}
		return IntakeDetails{}, false, err
	}
	medicine, err := service.medicines.FindByIDForUser(medicineID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return IntakeDetails{}, false, ErrMedicineNotFound
		}
		return IntakeDetails{}, false, err
	}

	now := service.now().In(service.location)
	day := models.DayOf(now, service.location)

	existing, err := service.intakes.FindByUserScheduleDate(userID, scheduleID, day)
	if err == nil {
		return service.detailsFor(userID, existing), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return IntakeDetails{}, false, fmt.Errorf("check existing intake: %w", err)
	}

	intake := models.Intake{
		UserID:        userID,
		ScheduleID:    scheduleID,
		MedicineID:    medicine.ID,
		ScheduledTime: scheduledTime,
		TakenAt:       now,
		Status:        status,
		Notes:         notes,
		Date:          day,
	}
	if err := service.intakes.Create(&intake); err != nil {
		// A concurrent request may have won the unique index.
		if existing, findErr := service.intakes.FindByUserScheduleDate(userID, scheduleID, day); findErr == nil {
			return service.detailsFor(userID, existing), false, nil
		}
		return IntakeDetails{}, false, fmt.Errorf("%w: %v", ErrSaveIntakeFailed, err)
	}
	return IntakeDetails{Intake: intake, Medicine: &medicine}, true, nil
}

func (service *IntakeService) ListToday(userID uint) ([]IntakeDetails, error) {
	today := models.DayOf(service.now(), service.location)
	intakes, err := service.intakes.ListByUserDay(userID, today)
	if err != nil {
		return nil, fmt.Errorf("list today intakes: %w", err)
	}
	return service.withMedicines(userID, intakes)
}

// History returns the newest intakes first, at most IntakeHistoryLimit.
func (service *IntakeService) History(userID uint) ([]IntakeDetails, error) {
	intakes, err := service.intakes.ListRecentByUser(userID, IntakeHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list intake history: %w", err)
	}
	return service.withMedicines(userID, intakes)
}

func (service *IntakeService) ListAll(userID uint) ([]IntakeDetails, error) {
	intakes, err := service.intakes.ListRecentByUser(userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list intakes: %w", err)
	}
	return service.withMedicines(userID, intakes)
}

func (service *IntakeService) DeleteIntake(userID uint, intakeID uint) error {
	if err := service.intakes.DeleteForUser(intakeID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIntakeNotFound
		}
		return fmt.Errorf("delete intake: %w", err)
	}
	return nil
}

func (service *IntakeService) detailsFor(userID uint, intake models.Intake) IntakeDetails {
	details := IntakeDetails{Intake: intake}
	if medicine, err := service.medicines.FindByIDForUser(intake.MedicineID, userID); err == nil {
		details.Medicine = &medicine
	}
	return details
}

func (service *IntakeService) withMedicines(userID uint, intakes []models.Intake) ([]IntakeDetails, error) {
	ids := make([]uint, 0, len(intakes))
	for _, intake := range intakes {
		ids = append(ids, intake.MedicineID)
	}
	medicines, err := service.medicines.ListByIDsForUser(userID, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("load intake medicines: %w", err)
	}
	byID := make(map[uint]models.Medicine, len(medicines))
	for _, medicine := range medicines {
		byID[medicine.ID] = medicine
	}

	details := make([]IntakeDetails, 0, len(intakes))
	for _, intake := range intakes {
		entry := IntakeDetails{Intake: intake}
		if medicine, ok := byID[intake.MedicineID]; ok {
			entry.Medicine = &medicine
		}
		details = append(details, entry)
	}
	return details, nil
}

func firstNonZero(values ...uint) uint {
	for _, value := range values {
		if value != 0 {
			return value
		}
	}
	return 0
}
