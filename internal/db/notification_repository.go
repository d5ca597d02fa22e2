package db

import (
	"errors"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	database *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{database: database}
}

// CreateAndTrim inserts the notification and keeps only the newest keep
// rows of the owner's history.
func (repo *NotificationRepository) CreateAndTrim(notification *models.Notification, keep int) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(notification).Error; err != nil {
			return err
		}
		if keep <= 0 {
			return nil
		}

		var boundary models.Notification
		err := tx.Where("user_id = ?", notification.UserID).
			Order("created_at DESC, id DESC").
			Offset(keep).
			Limit(1).
			Take(&boundary).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return tx.Where(
			"user_id = ? AND (created_at < ? OR (created_at = ? AND id <= ?))",
			notification.UserID,
			boundary.CreatedAt,
			boundary.CreatedAt,
			boundary.ID,
		).Delete(&models.Notification{}).Error
	})
}

// ListRecent returns the owner's notifications created after since, newest first.
func (repo *NotificationRepository) ListRecent(userID uint, since time.Time, limit int) ([]models.Notification, error) {
	query := repo.database.
		Where("user_id = ? AND created_at > ?", userID, since).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	notifications := make([]models.Notification, 0)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (repo *NotificationRepository) DeleteByUser(userID uint) (int64, error) {
	result := repo.database.Where("user_id = ?", userID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

func (repo *NotificationRepository) DeleteCreatedBefore(cutoff time.Time) (int64, error) {
	result := repo.database.Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
