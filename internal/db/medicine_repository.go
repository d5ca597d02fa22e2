package db

import (
	"strings"

	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MedicineRepository struct {
	database *gorm.DB
}

func NewMedicineRepository(database *gorm.DB) *MedicineRepository {
	return &MedicineRepository{database: database}
}

var medicineOrderColumns = map[string]string{
	"name":      "name",
	"createdAt": "created_at",
}

// ListByUser returns one page of the user's medicines together with the
// total number of rows matching the filter.
func (repo *MedicineRepository) ListByUser(userID uint, filter models.MedicineFilter) ([]models.Medicine, int64, error) {
	query := repo.database.Model(&models.Medicine{}).Where("user_id = ?", userID)
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + escapeLikePattern(search) + "%"
		query = query.Where(medicineSearchClause, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := medicineOrderColumns[filter.OrderBy]
	if !ok {
		column = "created_at"
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.Descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: filter.Descending})
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	medicines := make([]models.Medicine, 0)
	if err := query.Find(&medicines).Error; err != nil {
		return nil, 0, err
	}
	return medicines, total, nil
}

func (repo *MedicineRepository) FindByIDForUser(medicineID uint, userID uint) (models.Medicine, error) {
	var medicine models.Medicine
	if err := repo.database.Where("id = ? AND user_id = ?", medicineID, userID).First(&medicine).Error; err != nil {
		return models.Medicine{}, err
	}
	return medicine, nil
}

func (repo *MedicineRepository) ListByIDsForUser(userID uint, ids []uint) ([]models.Medicine, error) {
	medicines := make([]models.Medicine, 0, len(ids))
	if len(ids) == 0 {
		return medicines, nil
	}
	if err := repo.database.Where("user_id = ? AND id IN ?", userID, ids).Find(&medicines).Error; err != nil {
		return nil, err
	}
	return medicines, nil
}

func (repo *MedicineRepository) Create(medicine *models.Medicine) error {
	return repo.database.Create(medicine).Error
}

// UpdateForUser applies updates in a single statement.
func (repo *MedicineRepository) UpdateForUser(medicineID uint, userID uint, updates map[string]any) error {
	result := repo.database.Model(&models.Medicine{}).
		Where("id = ? AND user_id = ?", medicineID, userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWithSchedules removes the medicine and every schedule that points at it.
func (repo *MedicineRepository) DeleteWithSchedules(medicineID uint, userID uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", medicineID, userID).Delete(&models.Medicine{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("medicine_id = ? AND user_id = ?", medicineID, userID).Delete(&models.Schedule{}).Error
	})
}

// likeEscape is used instead of a backslash, which MySQL also treats as an
// escape inside string literals.
const likeEscape = "!"

const medicineSearchClause = "(lower(name) LIKE ? ESCAPE '" + likeEscape + "' OR lower(dosage) LIKE ? ESCAPE '" + likeEscape + "')"

func escapeLikePattern(value string) string {
	replacer := strings.NewReplacer(likeEscape, likeEscape+likeEscape, `%`, likeEscape+`%`, `_`, likeEscape+`_`)
	return replacer.Replace(value)
}
