package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrSaveScheduleFailed = errors.New("save schedule failed")
)

type ScheduleRepository interface {
	ListByUser(userID uint) ([]models.Schedule, error)
	ListByMedicine(userID uint, medicineID uint) ([]models.Schedule, error)
	FindByIDForUser(scheduleID uint, userID uint) (models.Schedule, error)
	Create(schedule *models.Schedule) error
	Save(schedule *models.Schedule) error
	DeleteForUser(scheduleID uint, userID uint) error
}

type MedicineLookup interface {
	FindByIDForUser(medicineID uint, userID uint) (models.Medicine, error)
	ListByIDsForUser(userID uint, ids []uint) ([]models.Medicine, error)
}

// ScheduleDetails pairs a schedule with its medicine. Medicine is nil when
// the medicine no longer exists.
type ScheduleDetails struct {
	Schedule models.Schedule
	Medicine *models.Medicine
}

type ScheduleService struct {
	schedules ScheduleRepository
	medicines MedicineLookup
	location  *time.Location
	now       func() time.Time
}

func NewScheduleService(schedules ScheduleRepository, medicines MedicineLookup, location *time.Location) *ScheduleService {
	if location == nil {
		location = time.Local
	}
	return &ScheduleService{schedules: schedules, medicines: medicines, location: location, now: time.Now}
}

// ListSchedules returns every schedule of the user, or with activeOnly only
// the enabled ones whose start/end bounds include today.
func (service *ScheduleService) ListSchedules(userID uint, activeOnly bool) ([]ScheduleDetails, error) {
	schedules, err := service.schedules.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	if activeOnly {
		today := models.DayStart(service.now(), service.location)
		active := make([]models.Schedule, 0, len(schedules))
		for _, schedule := range schedules {
			if schedule.ActiveOn(today) {
				active = append(active, schedule)
			}
		}
		schedules = active
	}
	return service.withMedicines(userID, schedules)
}

func (service *ScheduleService) ListByMedicine(userID uint, medicineID uint) ([]ScheduleDetails, error) {
	schedules, err := service.schedules.ListByMedicine(userID, medicineID)
	if err != nil {
		return nil, fmt.Errorf("list schedules by medicine: %w", err)
	}
	return service.withMedicines(userID, schedules)
}

func (service *ScheduleService) GetSchedule(userID uint, scheduleID uint) (models.Schedule, error) {
	schedule, err := service.schedules.FindByIDForUser(scheduleID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Schedule{}, ErrScheduleNotFound
		}
		return models.Schedule{}, err
	}
	return schedule, nil
}

func (service *ScheduleService) CreateSchedule(userID uint, input ScheduleInput) (ScheduleDetails, error) {
	normalized, err := NormalizeScheduleInput(input, service.location)
	if err != nil {
		return ScheduleDetails{}, err
	}
	if normalized.MedicineID == 0 || len(normalized.Times) == 0 {
		return ScheduleDetails{}, fmt.Errorf("%w: medicine and time are required", ErrInvalidScheduleInput)
	}

	medicine, err := service.ownedMedicine(userID, normalized.MedicineID)
	if err != nil {
		return ScheduleDetails{}, err
	}

	schedule := models.Schedule{
		UserID:     userID,
		MedicineID: medicine.ID,
		Times:      normalized.Times,
		Days:       normalized.Days,
		Frequency:  models.FrequencyDaily,
		IsActive:   true,
		StartDate:  models.DayStart(service.now(), service.location),
		EndDate:    normalized.EndDate,
	}
	if schedule.Days == nil {
		schedule.Days = []string{}
	}
	if normalized.HasFrequency {
		schedule.Frequency = normalized.Frequency
	}
	if normalized.IsActive != nil {
		schedule.IsActive = *normalized.IsActive
	}
	if normalized.StartDate != nil {
		schedule.StartDate = *normalized.StartDate
	}
	if schedule.EndDate != nil && schedule.EndDate.Before(schedule.StartDate) {
		return ScheduleDetails{}, fmt.Errorf("%w: endDate is before startDate", ErrInvalidScheduleInput)
	}

	if err := service.schedules.Create(&schedule); err != nil {
		return ScheduleDetails{}, fmt.Errorf("%w: %v", ErrSaveScheduleFailed, err)
	}
	return ScheduleDetails{Schedule: schedule, Medicine: &medicine}, nil
}

// UpdateSchedule applies the provided fields. A new medicine reference must
// belong to the caller.
func (service *ScheduleService) UpdateSchedule(userID uint, scheduleID uint, input ScheduleInput) (ScheduleDetails, error) {
	schedule, err := service.GetSchedule(userID, scheduleID)
	if err != nil {
		return ScheduleDetails{}, err
	}

	normalized, err := NormalizeScheduleInput(input, service.location)
	if err != nil {
		return ScheduleDetails{}, err
	}

	if normalized.MedicineID != 0 && normalized.MedicineID != schedule.MedicineID {
		medicine, err := service.ownedMedicine(userID, normalized.MedicineID)
		if err != nil {
			return ScheduleDetails{}, err
		}
		schedule.MedicineID = medicine.ID
	}
	if normalized.HasTimes {
		if len(normalized.Times) == 0 {
			return ScheduleDetails{}, fmt.Errorf("%w: at least one time is required", ErrInvalidScheduleInput)
		}
		schedule.Times = normalized.Times
	}
	if normalized.HasDays {
		schedule.Days = normalized.Days
	}
	if normalized.HasFrequency {
		schedule.Frequency = normalized.Frequency
	}
	if normalized.IsActive != nil {
		schedule.IsActive = *normalized.IsActive
	}
	if normalized.StartDate != nil {
		schedule.StartDate = *normalized.StartDate
	}
	if normalized.HasEndDate {
		schedule.EndDate = normalized.EndDate
	}
	if schedule.EndDate != nil && schedule.EndDate.Before(schedule.StartDate) {
		return ScheduleDetails{}, fmt.Errorf("%w: endDate is before startDate", ErrInvalidScheduleInput)
	}

	if err := service.schedules.Save(&schedule); err != nil {
		return ScheduleDetails{}, fmt.Errorf("%w: %v", ErrSaveScheduleFailed, err)
	}

	details, err := service.withMedicines(userID, []models.Schedule{schedule})
	if err != nil {
		return ScheduleDetails{}, err
	}
	return details[0], nil
}

func (service *ScheduleService) DeleteSchedule(userID uint, scheduleID uint) error {
	if err := service.schedules.DeleteForUser(scheduleID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

func (service *ScheduleService) ownedMedicine(userID uint, medicineID uint) (models.Medicine, error) {
	medicine, err := service.medicines.FindByIDForUser(medicineID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Medicine{}, ErrMedicineNotFound
		}
		return models.Medicine{}, err
	}
	return medicine, nil
}

func (service *ScheduleService) withMedicines(userID uint, schedules []models.Schedule) ([]ScheduleDetails, error) {
	ids := make([]uint, 0, len(schedules))
	for _, schedule := range schedules {
		ids = append(ids, schedule.MedicineID)
	}
	medicines, err := service.medicines.ListByIDsForUser(userID, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("load schedule medicines: %w", err)
	}
	byID := make(map[uint]models.Medicine, len(medicines))
	for _, medicine := range medicines {
		byID[medicine.ID] = medicine
	}

	details := make([]ScheduleDetails, 0, len(schedules))
	for _, schedule := range schedules {
		entry := ScheduleDetails{Schedule: schedule}
		if medicine, ok := byID[schedule.MedicineID]; ok {
			entry.Medicine = &medicine
		}
		details = append(details, entry)
	}
	return details, nil
}
