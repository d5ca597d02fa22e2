package reminder

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRefreshInterval = 30 * time.Minute
	DefaultActiveLimit     = 10
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRecomputeInFlight = errors.New("reminder recomputation already in flight")
	ErrNotStarted        = errors.New("reminder scheduler is not started")
	ErrAlreadyStarted    = errors.New("reminder scheduler already started")
)

type Options struct {
	Source          Source
	History         HistorySink
	Notifier        Notifier
	Toaster         Toaster
	Clock           Clock
	Logger          *zap.Logger
	RefreshInterval time.Duration
	ActiveLimit     int
}

type armedReminder struct {
	pending Pending
	timer   Timer
}

// session is the state owned by one Start/Stop cycle.
type session struct {
	ctx            context.Context
	cancel         context.CancelFunc
	armed          map[string]armedReminder
	refresh        Timer
	medicines      map[uint]Medicine
	active         []Notification
	lastComputedAt time.Time
	permission     Permission
	inFlight       atomic.Bool
}

// Scheduler arms one timer per reminder still pending today and re-syncs
// with its Source on a fixed interval. Reminding is best-effort and only
// happens while the scheduler runs; nothing is persisted across restarts.
type Scheduler struct {
	source          Source
	history         HistorySink
	notifier        Notifier
	toaster         Toaster
	clock           Clock
	logger          *zap.Logger
	refreshInterval time.Duration
	activeLimit     int

	mu         sync.Mutex
	session    *session
	generation uint64
}

func NewScheduler(options Options) (*Scheduler, error) {
	if options.Source == nil {
		return nil, errors.New("reminder source is required")
	}
	if options.Toaster == nil {
		return nil, errors.New("reminder toaster is required")
	}

	scheduler := &Scheduler{
		source:          options.Source,
		history:         options.History,
		notifier:        options.Notifier,
		toaster:         options.Toaster,
		clock:           options.Clock,
		logger:          options.Logger,
		refreshInterval: options.RefreshInterval,
		activeLimit:     options.ActiveLimit,
	}
	if scheduler.notifier == nil {
		scheduler.notifier = NopNotifier{}
	}
	if scheduler.clock == nil {
		scheduler.clock = RealClock{}
	}
	if scheduler.logger == nil {
		scheduler.logger = zap.NewNop()
	}
	if scheduler.refreshInterval <= 0 {
		scheduler.refreshInterval = DefaultRefreshInterval
	}
	if scheduler.activeLimit <= 0 {
		scheduler.activeLimit = DefaultActiveLimit
	}
	return scheduler, nil
}

// Start activates the scheduler: it settles notification permission, runs
// the first recomputation and arms the periodic refresh. A failed first
// recomputation is reported through the toaster and retried on refresh.
func (scheduler *Scheduler) Start(ctx context.Context) error {
	scheduler.mu.Lock()
	if scheduler.session != nil {
		scheduler.mu.Unlock()
		return ErrAlreadyStarted
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	current := &session{
		ctx:       sessionCtx,
		cancel:    cancel,
		armed:     make(map[string]armedReminder),
		medicines: make(map[uint]Medicine),
	}
	scheduler.session = current
	scheduler.mu.Unlock()

	permission := scheduler.settlePermission(sessionCtx)
	scheduler.mu.Lock()
	current.permission = permission
	scheduler.mu.Unlock()

	if err := scheduler.Recompute(sessionCtx); err != nil {
		scheduler.logger.Debug("initial reminder recomputation failed", zap.Error(err))
	}

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.session == current {
		current.refresh = scheduler.clock.AfterFunc(scheduler.refreshInterval, func() {
			scheduler.refresh(current)
		})
	}
	return nil
}

// Stop cancels every armed timer, the refresh included, and drops the
// session state. Timers that are already running become no-ops.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	current := scheduler.session
	if current == nil {
		return
	}
	scheduler.cancelArmedLocked(current)
	if current.refresh != nil {
		current.refresh.Stop()
	}
	scheduler.generation++
	scheduler.session = nil
	current.cancel()
}

// Recompute fetches schedules, today's intakes and medicines, then replaces
// every armed timer with one per pending reminder. On failure no timers stay
// armed until the next successful run.
func (scheduler *Scheduler) Recompute(ctx context.Context) error {
	scheduler.mu.Lock()
	current := scheduler.session
	scheduler.mu.Unlock()
	if current == nil {
		return ErrNotStarted
	}

	// The guard belongs to the session so a fetch left over from a stopped
	// session never blocks the next one.
	if !current.inFlight.CompareAndSwap(false, true) {
		return ErrRecomputeInFlight
	}
	defer current.inFlight.Store(false)

	var (
		records   []ScheduleRecord
		intakes   []Intake
		medicines []Medicine
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		records, err = scheduler.source.ActiveSchedules(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		intakes, err = scheduler.source.TodayIntakes(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		medicines, err = scheduler.source.Medicines(groupCtx)
		return err
	})
	fetchErr := group.Wait()

	scheduler.mu.Lock()
	if scheduler.session != current {
		scheduler.mu.Unlock()
		return ErrNotStarted
	}
	if fetchErr != nil {
		scheduler.cancelArmedLocked(current)
		scheduler.generation++
		scheduler.mu.Unlock()

		if errors.Is(fetchErr, ErrUnauthorized) {
			scheduler.logger.Info("reminder source rejected the credential; reminders paused")
			return fetchErr
		}
		scheduler.logger.Warn("reminder recomputation failed", zap.Error(fetchErr))
		scheduler.toaster.Toast(ToastError, "Failed scheduling notifications")
		return fetchErr
	}

	schedules := make([]Schedule, 0, len(records))
	for _, record := range records {
		schedules = append(schedules, NormalizeSchedule(record))
	}
	now := scheduler.clock.Now()
	pending := Plan(now, schedules, intakes)

	scheduler.cancelArmedLocked(current)
	scheduler.generation++
	generation := scheduler.generation

	current.medicines = make(map[uint]Medicine, len(medicines))
	for _, medicine := range medicines {
		current.medicines[medicine.ID] = medicine
	}
	for _, entry := range pending {
		entry := entry
		timer := scheduler.clock.AfterFunc(entry.At.Sub(now), func() {
			scheduler.fire(generation, entry)
		})
		current.armed[entry.Key] = armedReminder{pending: entry, timer: timer}
	}
	current.lastComputedAt = now
	scheduler.mu.Unlock()

	scheduler.logger.Debug("reminders armed", zap.Int("count", len(pending)))
	return nil
}

// Armed returns the reminders currently waiting to fire, earliest first.
func (scheduler *Scheduler) Armed() []Pending {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.session == nil {
		return nil
	}
	armed := make([]Pending, 0, len(scheduler.session.armed))
	for _, entry := range scheduler.session.armed {
		armed = append(armed, entry.pending)
	}
	sort.Slice(armed, func(i, j int) bool {
		return armed[i].At.Before(armed[j].At)
	})
	return armed
}

// Active returns the recent notifications, newest first.
func (scheduler *Scheduler) Active() []Notification {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.session == nil {
		return nil
	}
	return append([]Notification(nil), scheduler.session.active...)
}

func (scheduler *Scheduler) Dismiss(id string) bool {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.session == nil {
		return false
	}
	for index, notification := range scheduler.session.active {
		if notification.ID == id {
			active := scheduler.session.active
			scheduler.session.active = append(active[:index:index], active[index+1:]...)
			return true
		}
	}
	return false
}

func (scheduler *Scheduler) LastComputedAt() time.Time {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.session == nil {
		return time.Time{}
	}
	return scheduler.session.lastComputedAt
}

func (scheduler *Scheduler) Permission() Permission {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	if scheduler.session == nil {
		return PermissionUndetermined
	}
	return scheduler.session.permission
}

func (scheduler *Scheduler) settlePermission(ctx context.Context) Permission {
	permission := scheduler.notifier.Permission()
	if permission != PermissionUndetermined {
		return permission
	}

	permission, err := scheduler.notifier.RequestPermission(ctx)
	if err != nil {
		scheduler.logger.Warn("notification permission request failed", zap.Error(err))
		permission = PermissionUnsupported
	}
	switch permission {
	case PermissionGranted:
		scheduler.toaster.Toast(ToastSuccess, "Notifications enabled")
	case PermissionDenied:
		scheduler.toaster.Toast(ToastError, "Notifications permission denied")
	default:
		scheduler.toaster.Toast(ToastError, "Platform notifications are not supported")
	}
	return permission
}

func (scheduler *Scheduler) refresh(current *session) {
	if err := scheduler.Recompute(current.ctx); err != nil && !errors.Is(err, ErrRecomputeInFlight) {
		scheduler.logger.Debug("periodic reminder refresh failed", zap.Error(err))
	}

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.session == current {
		current.refresh = scheduler.clock.AfterFunc(scheduler.refreshInterval, func() {
			scheduler.refresh(current)
		})
	}
}

func (scheduler *Scheduler) fire(generation uint64, entry Pending) {
	scheduler.mu.Lock()
	current := scheduler.session
	if current == nil || generation != scheduler.generation {
		scheduler.mu.Unlock()
		return
	}
	delete(current.armed, entry.Key)

	var medicine *Medicine
	if found, ok := current.medicines[entry.MedicineID]; ok {
		medicine = &found
	}
	notification := Notification{
		ID:            uuid.NewString(),
		Title:         ReminderTitle,
		Body:          ComposeBody(medicine, entry.Time),
		Medicine:      medicine,
		ScheduleID:    entry.ScheduleID,
		ScheduledTime: entry.Time,
		CreatedAt:     scheduler.clock.Now(),
	}
	active := make([]Notification, 0, scheduler.activeLimit)
	active = append(active, notification)
	for _, previous := range current.active {
		if len(active) == scheduler.activeLimit {
			break
		}
		active = append(active, previous)
	}
	current.active = active
	permission := current.permission
	ctx := current.ctx
	scheduler.mu.Unlock()

	if permission == PermissionGranted {
		if err := scheduler.notifier.Notify(ctx, notification.Title, notification.Body); err != nil {
			scheduler.logger.Warn("platform notification failed", zap.Error(err))
		}
	}
	scheduler.toaster.Toast(ToastInfo, notification.Body)
	if scheduler.history != nil {
		if err := scheduler.history.AppendNotification(ctx, notification); err != nil {
			scheduler.logger.Warn("append notification history failed",
				zap.Uint("schedule_id", entry.ScheduleID),
				zap.String("scheduled_time", entry.Time),
				zap.Error(err),
			)
		}
	}
}

func (scheduler *Scheduler) cancelArmedLocked(current *session) {
	for key, entry := range current.armed {
		entry.timer.Stop()
		delete(current.armed, key)
	}
}
