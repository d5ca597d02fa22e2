package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMedicineNotFound     = errors.New("medicine not found")
	ErrInvalidMedicineInput = errors.New("invalid medicine input")
	ErrSaveMedicineFailed   = errors.New("save medicine failed")
)

const (
	DefaultMedicinePageSize = 20
	MaxMedicinePageSize     = 500
	maxMedicineFieldLength  = 200
	maxMedicineDescription  = 2000
)

type MedicineRepository interface {
	ListByUser(userID uint, filter models.MedicineFilter) ([]models.Medicine, int64, error)
	FindByIDForUser(medicineID uint, userID uint) (models.Medicine, error)
	ListByIDsForUser(userID uint, ids []uint) ([]models.Medicine, error)
	Create(medicine *models.Medicine) error
	UpdateForUser(medicineID uint, userID uint, updates map[string]any) error
	DeleteWithSchedules(medicineID uint, userID uint) error
}

// MedicineInput carries optional fields: nil means "not provided". Create
// requires Name and Dosage.
type MedicineInput struct {
	Name        *string
	Dosage      *string
	Type        *string
	Description *string
	Frequency   *int
}

type MedicineListQuery struct {
	Paginate      bool
	Page          int
	Limit         int
	Search        string
	SortField     string
	SortDirection string
}

type MedicinePage struct {
	Items []models.Medicine `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Pages int               `json:"pages"`
}

type MedicineService struct {
	medicines MedicineRepository
	images    storage.Store
	logger    *zap.Logger
}

func NewMedicineService(medicines MedicineRepository, images storage.Store, logger *zap.Logger) *MedicineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicineService{medicines: medicines, images: images, logger: logger}
}

func (service *MedicineService) ListMedicines(userID uint, query MedicineListQuery) (MedicinePage, error) {
	filter := models.MedicineFilter{Search: strings.TrimSpace(query.Search)}

	switch strings.TrimSpace(query.SortField) {
	case "", "createdAt":
		filter.OrderBy = "createdAt"
		filter.Descending = true
	case "name":
		filter.OrderBy = "name"
	default:
		return MedicinePage{}, fmt.Errorf("%w: sortField must be name or createdAt", ErrInvalidMedicineInput)
	}
	switch strings.ToLower(strings.TrimSpace(query.SortDirection)) {
	case "":
	case "asc":
		filter.Descending = false
	case "desc":
		filter.Descending = true
	default:
		return MedicinePage{}, fmt.Errorf("%w: sortDirection must be asc or desc", ErrInvalidMedicineInput)
	}

	page := 1
	if query.Paginate {
		page = max(query.Page, 1)
		limit := query.Limit
		if limit <= 0 {
			limit = DefaultMedicinePageSize
		}
		filter.Limit = min(limit, MaxMedicinePageSize)
		filter.Offset = (page - 1) * filter.Limit
	}

	items, total, err := service.medicines.ListByUser(userID, filter)
	if err != nil {
		return MedicinePage{}, fmt.Errorf("list medicines: %w", err)
	}

	pages := 1
	if filter.Limit > 0 {
		pages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}
	return MedicinePage{Items: items, Total: total, Page: page, Pages: max(pages, 1)}, nil
}

func (service *MedicineService) GetMedicine(userID uint, medicineID uint) (models.Medicine, error) {
	medicine, err := service.medicines.FindByIDForUser(medicineID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Medicine{}, ErrMedicineNotFound
		}
		return models.Medicine{}, err
	}
	return medicine, nil
}

func (service *MedicineService) CreateMedicine(ctx context.Context, userID uint, input MedicineInput, image *storage.Upload) (models.Medicine, error) {
	if input.Name == nil || input.Dosage == nil {
		return models.Medicine{}, fmt.Errorf("%w: name and dosage are required", ErrInvalidMedicineInput)
	}
	updates, err := normalizeMedicineInput(input)
	if err != nil {
		return models.Medicine{}, err
	}

	medicine := models.Medicine{
		UserID:    userID,
		Name:      updates["name"].(string),
		Dosage:    updates["dosage"].(string),
		Type:      models.MedicineTablet,
		Frequency: 1,
	}
	if value, ok := updates["type"].(string); ok {
		medicine.Type = value
	}
	if value, ok := updates["description"].(string); ok {
		medicine.Description = value
	}
	if value, ok := updates["frequency"].(int); ok {
		medicine.Frequency = value
	}

	var stored *storage.Object
	if image != nil {
		object, err := service.images.Save(ctx, userID, *image)
		if err != nil {
			return models.Medicine{}, err
		}
		stored = &object
		medicine.Image = object.URL
		medicine.ImageKey = object.Key
	}

	if err := service.medicines.Create(&medicine); err != nil {
		service.discardImage(ctx, stored)
		return models.Medicine{}, fmt.Errorf("%w: %v", ErrSaveMedicineFailed, err)
	}
	return medicine, nil
}

// UpdateMedicine applies the provided fields in one statement. A new image
// replaces the old one, which is removed only after the update succeeded.
func (service *MedicineService) UpdateMedicine(ctx context.Context, userID uint, medicineID uint, input MedicineInput, image *storage.Upload) (models.Medicine, error) {
	existing, err := service.GetMedicine(userID, medicineID)
	if err != nil {
		return models.Medicine{}, err
	}

	updates, err := normalizeMedicineInput(input)
	if err != nil {
		return models.Medicine{}, err
	}

	var stored *storage.Object
	if image != nil {
		object, err := service.images.Save(ctx, userID, *image)
		if err != nil {
			return models.Medicine{}, err
		}
		stored = &object
		updates["image"] = object.URL
		updates["image_key"] = object.Key
	}

	if len(updates) > 0 {
		if err := service.medicines.UpdateForUser(medicineID, userID, updates); err != nil {
			service.discardImage(ctx, stored)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Medicine{}, ErrMedicineNotFound
			}
			return models.Medicine{}, fmt.Errorf("%w: %v", ErrSaveMedicineFailed, err)
		}
	}

	if stored != nil && existing.ImageKey != "" && existing.ImageKey != stored.Key {
		service.discardImage(ctx, &storage.Object{Key: existing.ImageKey})
	}
	return service.GetMedicine(userID, medicineID)
}

// DeleteMedicine removes the medicine, its schedules and its stored image.
func (service *MedicineService) DeleteMedicine(ctx context.Context, userID uint, medicineID uint) error {
	existing, err := service.GetMedicine(userID, medicineID)
	if err != nil {
		return err
	}
	if err := service.medicines.DeleteWithSchedules(medicineID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMedicineNotFound
		}
		return fmt.Errorf("delete medicine: %w", err)
	}
	if existing.ImageKey != "" {
		service.discardImage(ctx, &storage.Object{Key: existing.ImageKey})
	}
	return nil
}

// MedicinesByID returns the caller's medicines among ids, keyed by id.
func (service *MedicineService) MedicinesByID(userID uint, ids []uint) (map[uint]models.Medicine, error) {
	medicines, err := service.medicines.ListByIDsForUser(userID, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Medicine, len(medicines))
	for _, medicine := range medicines {
		byID[medicine.ID] = medicine
	}
	return byID, nil
}

func (service *MedicineService) discardImage(ctx context.Context, object *storage.Object) {
	if object == nil || object.Key == "" {
		return
	}
	if err := service.images.Delete(ctx, object.Key); err != nil {
		service.logger.Warn("remove stored image failed", zap.String("key", object.Key), zap.Error(err))
	}
}

func normalizeMedicineInput(input MedicineInput) (map[string]any, error) {
	updates := make(map[string]any)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || utf8.RuneCountInString(name) > maxMedicineFieldLength {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidMedicineInput)
		}
		updates["name"] = name
	}
	if input.Dosage != nil {
		dosage := strings.TrimSpace(*input.Dosage)
		if dosage == "" || utf8.RuneCountInString(dosage) > maxMedicineFieldLength {
			return nil, fmt.Errorf("%w: dosage is required", ErrInvalidMedicineInput)
		}
		updates["dosage"] = dosage
	}
	if input.Type != nil {
		medicineType, ok := models.CanonicalMedicineType(*input.Type)
		if !ok {
			return nil, fmt.Errorf("%w: unknown medicine type %q", ErrInvalidMedicineInput, strings.TrimSpace(*input.Type))
		}
		updates["type"] = medicineType
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if utf8.RuneCountInString(description) > maxMedicineDescription {
			return nil, fmt.Errorf("%w: description is too long", ErrInvalidMedicineInput)
		}
		updates["description"] = description
	}
	if input.Frequency != nil {
		frequency := *input.Frequency
		if frequency == 0 {
			frequency = 1
		}
		if frequency < 1 || frequency > 24 {
			return nil, fmt.Errorf("%w: frequency must be between 1 and 24", ErrInvalidMedicineInput)
		}
		updates["frequency"] = frequency
	}
	return updates, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
