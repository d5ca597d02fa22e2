package db

import (
	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/gorm"
)

type ScheduleRepository struct {
	database *gorm.DB
}

func NewScheduleRepository(database *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{database: database}
}

func (repo *ScheduleRepository) ListByUser(userID uint) ([]models.Schedule, error) {
	schedules := make([]models.Schedule, 0)
	if err := repo.database.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (repo *ScheduleRepository) ListByMedicine(userID uint, medicineID uint) ([]models.Schedule, error) {
	schedules := make([]models.Schedule, 0)
	if err := repo.database.
		Where("user_id = ? AND medicine_id = ?", userID, medicineID).
		Order("created_at DESC, id DESC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (repo *ScheduleRepository) FindByIDForUser(scheduleID uint, userID uint) (models.Schedule, error) {
	var schedule models.Schedule
	if err := repo.database.Where("id = ? AND user_id = ?", scheduleID, userID).First(&schedule).Error; err != nil {
		return models.Schedule{}, err
	}
	return schedule, nil
}

func (repo *ScheduleRepository) Create(schedule *models.Schedule) error {
	return repo.database.Create(schedule).Error
}

func (repo *ScheduleRepository) Save(schedule *models.Schedule) error {
	return repo.database.Save(schedule).Error
}

func (repo *ScheduleRepository) DeleteForUser(scheduleID uint, userID uint) error {
	result := repo.database.Where("id = ? AND user_id = ?", scheduleID, userID).Delete(&models.Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
