package reminder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Source supplies the data a recomputation needs. Implementations report a
// rejected credential with an error wrapping ErrUnauthorized.
type Source interface {
	ActiveSchedules(ctx context.Context) ([]ScheduleRecord, error)
	TodayIntakes(ctx context.Context) ([]Intake, error)
	Medicines(ctx context.Context) ([]Medicine, error)
}

// HistorySink persists fired notifications.
type HistorySink interface {
	AppendNotification(ctx context.Context, notification Notification) error
}

// Notifier delivers platform notifications.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, title string, body string) error
}

// Toaster shows transient in-app messages.
type Toaster interface {
	Toast(level ToastLevel, message string)
}

// NopNotifier is used when no platform channel is configured.
type NopNotifier struct{}

func (NopNotifier) Permission() Permission { return PermissionUnsupported }

func (NopNotifier) RequestPermission(context.Context) (Permission, error) {
	return PermissionUnsupported, nil
}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }

// WriterToaster prints toasts as timestamped lines.
type WriterToaster struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewWriterToaster(out io.Writer) *WriterToaster {
	return &WriterToaster{out: out, now: time.Now}
}

func (toaster *WriterToaster) Toast(level ToastLevel, message string) {
	toaster.mu.Lock()
	defer toaster.mu.Unlock()
	fmt.Fprintf(toaster.out, "%s [%s] %s\n", toaster.now().Format("15:04"), level, message)
}
