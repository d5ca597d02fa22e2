package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/terraincognita07/meditrack/internal/models"
	"go.uber.org/zap"
)

// RetentionSpec fires at local midnight.
const RetentionSpec = "0 0 * * *"

type IntakeSweeper interface {
	DeleteBefore(cutoff models.CalendarDay) (int64, error)
}

type NotificationSweeper interface {
	DeleteCreatedBefore(cutoff time.Time) (int64, error)
}

type SweepResult struct {
	DeletedIntakes       int64     `json:"deletedCount"`
	DeletedNotifications int64     `json:"deletedNotifications"`
	Cutoff               time.Time `json:"cutoff"`
}

// RetentionService clears intakes of previous days so each day starts with
// an empty ledger, and drops expired notifications.
type RetentionService struct {
	intakes       IntakeSweeper
	notifications NotificationSweeper
	location      *time.Location
	logger        *zap.Logger
	now           func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
	stopped   chan struct{}
}

func NewRetentionService(intakes IntakeSweeper, notifications NotificationSweeper, location *time.Location, logger *zap.Logger) *RetentionService {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		intakes:       intakes,
		notifications: notifications,
		location:      location,
		logger:        logger,
		now:           time.Now,
	}
}

// Sweep deletes every intake dated before today in one statement. A failed
// notification purge is reported but does not undo the intake sweep.
func (service *RetentionService) Sweep(ctx context.Context) (SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return SweepResult{}, err
	}

	now := service.now()
	cutoff := models.DayStart(now, service.location)
	result := SweepResult{Cutoff: cutoff}

	deleted, err := service.intakes.DeleteBefore(models.DayOf(cutoff, service.location))
	if err != nil {
		return result, fmt.Errorf("sweep intakes: %w", err)
	}
	result.DeletedIntakes = deleted

	if service.notifications != nil {
		expired, err := service.notifications.DeleteCreatedBefore(now.Add(-models.NotificationRetention))
		if err != nil {
			return result, fmt.Errorf("sweep notifications: %w", err)
		}
		result.DeletedNotifications = expired
	}
	return result, nil
}

// Start registers the midnight job and runs it until ctx is cancelled or
// Stop is called.
func (service *RetentionService) Start(ctx context.Context) error {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.scheduler != nil {
		return errors.New("retention sweep already started")
	}

	scheduler := cron.New(cron.WithLocation(service.location))
	if _, err := scheduler.AddFunc(RetentionSpec, func() { service.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}
	scheduler.Start()
	stopped := make(chan struct{})
	service.scheduler = scheduler
	service.stopped = stopped
	service.logger.Info("retention sweep scheduled", zap.String("spec", RetentionSpec), zap.String("location", service.location.String()))

	go func() {
		select {
		case <-ctx.Done():
			service.Stop()
		case <-stopped:
		}
	}()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (service *RetentionService) Stop() {
	service.mu.Lock()
	scheduler := service.scheduler
	stopped := service.stopped
	service.scheduler = nil
	service.stopped = nil
	service.mu.Unlock()

	if scheduler == nil {
		return
	}
	close(stopped)
	<-scheduler.Stop().Done()
}

func (service *RetentionService) runScheduled(ctx context.Context) {
	started := service.now()
	result, err := service.Sweep(ctx)
	if err != nil {
		service.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	service.logger.Info("retention sweep complete",
		zap.Int64("deleted_intakes", result.DeletedIntakes),
		zap.Int64("deleted_notifications", result.DeletedNotifications),
		zap.Time("cutoff", result.Cutoff),
		zap.Duration("elapsed", service.now().Sub(started)),
	)
}
