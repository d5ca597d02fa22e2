package db

import (
	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/gorm"
)

type IntakeRepository struct {
	database *gorm.DB
}

func NewIntakeRepository(database *gorm.DB) *IntakeRepository {
	return &IntakeRepository{database: database}
}

func (repo *IntakeRepository) FindByUserScheduleDate(userID uint, scheduleID uint, day models.CalendarDay) (models.Intake, error) {
	var intake models.Intake
	if err := repo.database.
		Where("user_id = ? AND schedule_id = ? AND date = ?", userID, scheduleID, day).
		First(&intake).Error; err != nil {
		return models.Intake{}, err
	}
	return intake, nil
}

func (repo *IntakeRepository) Create(intake *models.Intake) error {
	return repo.database.Create(intake).Error
}

// ListByUserDay returns the intakes recorded on day, newest first.
func (repo *IntakeRepository) ListByUserDay(userID uint, day models.CalendarDay) ([]models.Intake, error) {
	intakes := make([]models.Intake, 0)
	if err := repo.database.
		Where("user_id = ? AND date = ?", userID, day).
		Order("taken_at DESC, id DESC").
		Find(&intakes).Error; err != nil {
		return nil, err
	}
	return intakes, nil
}

// ListRecentByUser returns the newest intakes first. limit <= 0 returns all.
func (repo *IntakeRepository) ListRecentByUser(userID uint, limit int) ([]models.Intake, error) {
	query := repo.database.Where("user_id = ?", userID).Order("taken_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	intakes := make([]models.Intake, 0)
	if err := query.Find(&intakes).Error; err != nil {
		return nil, err
	}
	return intakes, nil
}

func (repo *IntakeRepository) DeleteForUser(intakeID uint, userID uint) error {
	result := repo.database.Where("id = ? AND user_id = ?", intakeID, userID).Delete(&models.Intake{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteBefore removes every intake whose calendar day precedes cutoff.
func (repo *IntakeRepository) DeleteBefore(cutoff models.CalendarDay) (int64, error) {
	result := repo.database.Where("date < ?", cutoff).Delete(&models.Intake{})
	return result.RowsAffected, result.Error
}
