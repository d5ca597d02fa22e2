package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/meditrack/internal/models"
	"gorm.io/datatypes"
)

var ErrInvalidNotificationInput = errors.New("invalid notification input")

const maxNotificationText = 500

type NotificationRepository interface {
	CreateAndTrim(notification *models.Notification, keep int) error
	ListRecent(userID uint, since time.Time, limit int) ([]models.Notification, error)
	DeleteByUser(userID uint) (int64, error)
}

type NotificationInput struct {
	Title         string
	Body          string
	Medicine      json.RawMessage
	ScheduleID    *uint
	ScheduledTime string
}

// NotificationService keeps the per-user reminder history: at most
// NotificationHistoryLimit rows, each visible for NotificationRetention.
type NotificationService struct {
	notifications NotificationRepository
	now           func() time.Time
}

func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications, now: time.Now}
}

func (service *NotificationService) Append(userID uint, input NotificationInput) (models.Notification, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return models.Notification{}, fmt.Errorf("%w: body is required", ErrInvalidNotificationInput)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = models.DefaultNotificationTitle
	}
	if len([]rune(body)) > maxNotificationText || len([]rune(title)) > maxNotificationText {
		return models.Notification{}, fmt.Errorf("%w: title or body is too long", ErrInvalidNotificationInput)
	}
	scheduledTime := strings.TrimSpace(input.ScheduledTime)
	if scheduledTime != "" && !IsClockTime(scheduledTime) {
		return models.Notification{}, fmt.Errorf("%w: scheduledTime must be HH:MM", ErrInvalidNotificationInput)
	}

	var medicine datatypes.JSON
	if raw := strings.TrimSpace(string(input.Medicine)); raw != "" && raw != "null" {
		if !json.Valid([]byte(raw)) {
			return models.Notification{}, fmt.Errorf("%w: medicine must be JSON", ErrInvalidNotificationInput)
		}
		medicine = datatypes.JSON(raw)
	}

	scheduleID := input.ScheduleID
	if scheduleID != nil && *scheduleID == 0 {
		scheduleID = nil
	}

	notification := models.Notification{
		UserID:        userID,
		Title:         title,
		Body:          body,
		Medicine:      medicine,
		ScheduleID:    scheduleID,
		ScheduledTime: scheduledTime,
		CreatedAt:     service.now(),
	}
	if err := service.notifications.CreateAndTrim(&notification, models.NotificationHistoryLimit); err != nil {
		return models.Notification{}, fmt.Errorf("append notification: %w", err)
	}
	return notification, nil
}

// ListRecent returns unexpired notifications newest first. A limit outside
// (0, NotificationHistoryLimit] falls back to NotificationHistoryLimit.
func (service *NotificationService) ListRecent(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > models.NotificationHistoryLimit {
		limit = models.NotificationHistoryLimit
	}
	since := service.now().Add(-models.NotificationRetention)
	notifications, err := service.notifications.ListRecent(userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (service *NotificationService) Clear(userID uint) (int64, error) {
	deleted, err := service.notifications.DeleteByUser(userID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return deleted, nil
}
