package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/storage"
	"gorm.io/gorm"
)

type stubMedicineRepo struct {
	medicines  map[uint]models.Medicine
	nextID     uint
	lastFilter models.MedicineFilter
	updateErr  error
	createErr  error
	deleted    []uint
}

func newStubMedicineRepo(medicines ...models.Medicine) *stubMedicineRepo {
	repo := &stubMedicineRepo{medicines: make(map[uint]models.Medicine), nextID: 1}
	for _, medicine := range medicines {
		if medicine.ID >= repo.nextID {
			repo.nextID = medicine.ID + 1
		}
		repo.medicines[medicine.ID] = medicine
	}
	return repo
}

func (stub *stubMedicineRepo) ListByUser(userID uint, filter models.MedicineFilter) ([]models.Medicine, int64, error) {
	stub.lastFilter = filter
	items := make([]models.Medicine, 0)
	for _, medicine := range stub.medicines {
		if medicine.UserID == userID {
			items = append(items, medicine)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	total := int64(len(items))
	if filter.Limit > 0 {
		start := min(filter.Offset, len(items))
		end := min(start+filter.Limit, len(items))
		items = items[start:end]
	}
	return items, total, nil
}

func (stub *stubMedicineRepo) FindByIDForUser(medicineID uint, userID uint) (models.Medicine, error) {
	medicine, ok := stub.medicines[medicineID]
	if !ok || medicine.UserID != userID {
		return models.Medicine{}, gorm.ErrRecordNotFound
	}
	return medicine, nil
}

func (stub *stubMedicineRepo) ListByIDsForUser(userID uint, ids []uint) ([]models.Medicine, error) {
	medicines := make([]models.Medicine, 0, len(ids))
	for _, id := range ids {
		if medicine, err := stub.FindByIDForUser(id, userID); err == nil {
			medicines = append(medicines, medicine)
		}
	}
	return medicines, nil
}

func (stub *stubMedicineRepo) Create(medicine *models.Medicine) error {
	if stub.createErr != nil {
		return stub.createErr
	}
	medicine.ID = stub.nextID
	stub.nextID++
	stub.medicines[medicine.ID] = *medicine
	return nil
}

func (stub *stubMedicineRepo) UpdateForUser(medicineID uint, userID uint, updates map[string]any) error {
	if stub.updateErr != nil {
		return stub.updateErr
	}
	medicine, err := stub.FindByIDForUser(medicineID, userID)
	if err != nil {
		return err
	}
	for column, value := range updates {
		switch column {
		case "name":
			medicine.Name = value.(string)
		case "dosage":
			medicine.Dosage = value.(string)
		case "type":
			medicine.Type = value.(string)
		case "description":
			medicine.Description = value.(string)
		case "frequency":
			medicine.Frequency = value.(int)
		case "image":
			medicine.Image = value.(string)
		case "image_key":
			medicine.ImageKey = value.(string)
		}
	}
	stub.medicines[medicineID] = medicine
	return nil
}

func (stub *stubMedicineRepo) DeleteWithSchedules(medicineID uint, userID uint) error {
	if _, err := stub.FindByIDForUser(medicineID, userID); err != nil {
		return err
	}
	delete(stub.medicines, medicineID)
	stub.deleted = append(stub.deleted, medicineID)
	return nil
}

type stubImageStore struct {
	saved   []string
	removed []string
	saveErr error
}

func (stub *stubImageStore) Save(_ context.Context, userID uint, upload storage.Upload) (storage.Object, error) {
	if stub.saveErr != nil {
		return storage.Object{}, stub.saveErr
	}
	extension, err := storage.ValidateUpload(upload)
	if err != nil {
		return storage.Object{}, err
	}
	if _, err := io.Copy(io.Discard, upload.Body); err != nil {
		return storage.Object{}, err
	}
	key := storage.NewObjectKey(userID, extension)
	stub.saved = append(stub.saved, key)
	return storage.Object{Key: key, URL: "/uploads/" + key}, nil
}

func (stub *stubImageStore) Delete(_ context.Context, key string) error {
	stub.removed = append(stub.removed, key)
	return nil
}

type stubScheduleRepo struct {
	schedules map[uint]models.Schedule
	nextID    uint
	saveErr   error
}

func newStubScheduleRepo(schedules ...models.Schedule) *stubScheduleRepo {
	repo := &stubScheduleRepo{schedules: make(map[uint]models.Schedule), nextID: 1}
	for _, schedule := range schedules {
		if schedule.ID >= repo.nextID {
			repo.nextID = schedule.ID + 1
		}
		repo.schedules[schedule.ID] = schedule
	}
	return repo
}

func (stub *stubScheduleRepo) ListByUser(userID uint) ([]models.Schedule, error) {
	schedules := make([]models.Schedule, 0)
	for _, schedule := range stub.schedules {
		if schedule.UserID == userID {
			schedules = append(schedules, schedule)
		}
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].ID < schedules[j].ID })
	return schedules, nil
}

func (stub *stubScheduleRepo) ListByMedicine(userID uint, medicineID uint) ([]models.Schedule, error) {
	all, _ := stub.ListByUser(userID)
	schedules := make([]models.Schedule, 0, len(all))
	for _, schedule := range all {
		if schedule.MedicineID == medicineID {
			schedules = append(schedules, schedule)
		}
	}
	return schedules, nil
}

func (stub *stubScheduleRepo) FindByIDForUser(scheduleID uint, userID uint) (models.Schedule, error) {
	schedule, ok := stub.schedules[scheduleID]
	if !ok || schedule.UserID != userID {
		return models.Schedule{}, gorm.ErrRecordNotFound
	}
	return schedule, nil
}

func (stub *stubScheduleRepo) Create(schedule *models.Schedule) error {
	schedule.ID = stub.nextID
	stub.nextID++
	stub.schedules[schedule.ID] = *schedule
	return nil
}

func (stub *stubScheduleRepo) Save(schedule *models.Schedule) error {
	if stub.saveErr != nil {
		return stub.saveErr
	}
	stub.schedules[schedule.ID] = *schedule
	return nil
}

func (stub *stubScheduleRepo) DeleteForUser(scheduleID uint, userID uint) error {
	if _, err := stub.FindByIDForUser(scheduleID, userID); err != nil {
		return err
	}
	delete(stub.schedules, scheduleID)
	return nil
}

type intakeKey struct {
	userID     uint
	scheduleID uint
	day        models.CalendarDay
}

type stubIntakeRepo struct {
	intakes   []models.Intake
	nextID    uint
	createErr error
	// raceWinner is inserted when Create is called, emulating a concurrent
	// request that reached the unique index first.
	raceWinner *models.Intake
}

func (stub *stubIntakeRepo) key(intake models.Intake) intakeKey {
	return intakeKey{userID: intake.UserID, scheduleID: intake.ScheduleID, day: intake.Date}
}

func (stub *stubIntakeRepo) FindByUserScheduleDate(userID uint, scheduleID uint, day models.CalendarDay) (models.Intake, error) {
	wanted := intakeKey{userID: userID, scheduleID: scheduleID, day: day}
	for _, intake := range stub.intakes {
		if stub.key(intake) == wanted {
			return intake, nil
		}
	}
	return models.Intake{}, gorm.ErrRecordNotFound
}

func (stub *stubIntakeRepo) Create(intake *models.Intake) error {
	if stub.raceWinner != nil {
		winner := *stub.raceWinner
		stub.raceWinner = nil
		stub.nextID++
		winner.ID = stub.nextID
		stub.intakes = append(stub.intakes, winner)
		return errors.New("UNIQUE constraint failed: intakes.user_id, intakes.schedule_id, intakes.date")
	}
	if stub.createErr != nil {
		return stub.createErr
	}
	for _, existing := range stub.intakes {
		if stub.key(existing) == stub.key(*intake) {
			return errors.New("UNIQUE constraint failed")
		}
	}
	stub.nextID++
	intake.ID = stub.nextID
	stub.intakes = append(stub.intakes, *intake)
	return nil
}

func (stub *stubIntakeRepo) ListByUserDay(userID uint, day models.CalendarDay) ([]models.Intake, error) {
	intakes := make([]models.Intake, 0)
	for _, intake := range stub.intakes {
		if intake.UserID == userID && intake.Date == day {
			intakes = append(intakes, intake)
		}
	}
	return intakes, nil
}

func (stub *stubIntakeRepo) ListRecentByUser(userID uint, limit int) ([]models.Intake, error) {
	intakes := make([]models.Intake, 0)
	for index := len(stub.intakes) - 1; index >= 0; index-- {
		if stub.intakes[index].UserID == userID {
			intakes = append(intakes, stub.intakes[index])
		}
		if limit > 0 && len(intakes) == limit {
			break
		}
	}
	return intakes, nil
}

func (stub *stubIntakeRepo) DeleteForUser(intakeID uint, userID uint) error {
	for index, intake := range stub.intakes {
		if intake.ID == intakeID && intake.UserID == userID {
			stub.intakes = append(stub.intakes[:index], stub.intakes[index+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubNotificationRepo struct {
	notifications []models.Notification
	keep          int
	since         time.Time
	limit         int
	createErr     error
}

func (stub *stubNotificationRepo) CreateAndTrim(notification *models.Notification, keep int) error {
	if stub.createErr != nil {
		return stub.createErr
	}
	stub.keep = keep
	notification.ID = uint(len(stub.notifications) + 1)
	stub.notifications = append(stub.notifications, *notification)
	return nil
}

func (stub *stubNotificationRepo) ListRecent(userID uint, since time.Time, limit int) ([]models.Notification, error) {
	stub.since = since
	stub.limit = limit
	result := make([]models.Notification, 0)
	for index := len(stub.notifications) - 1; index >= 0; index-- {
		notification := stub.notifications[index]
		if notification.UserID == userID && notification.CreatedAt.After(since) {
			result = append(result, notification)
		}
	}
	return result, nil
}

func (stub *stubNotificationRepo) DeleteByUser(userID uint) (int64, error) {
	kept := stub.notifications[:0]
	var deleted int64
	for _, notification := range stub.notifications {
		if notification.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, notification)
	}
	stub.notifications = kept
	return deleted, nil
}

func fixedClock(value time.Time) func() time.Time {
	return func() time.Time { return value }
}

func stringPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}
