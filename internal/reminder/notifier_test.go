package reminder

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gregdel/pushover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPushoverSender struct {
	messages   []*pushover.Message
	recipients []*pushover.Recipient
	err        error
}

func (sender *stubPushoverSender) SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error) {
	sender.messages = append(sender.messages, message)
	sender.recipients = append(sender.recipients, recipient)
	if sender.err != nil {
		return nil, sender.err
	}
	return &pushover.Response{Status: 1}, nil
}

func TestNewPushoverNotifierRequiresCredentials(t *testing.T) {
	_, err := NewPushoverNotifier("token", " ")
	require.Error(t, err)
	_, err = NewPushoverNotifier("", "user")
	require.Error(t, err)

	notifier, err := NewPushoverNotifier("token", "user")
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, notifier.Permission())
}

func TestPushoverNotifierSendsTitleAndBody(t *testing.T) {
	sender := &stubPushoverSender{}
	notifier := &PushoverNotifier{sender: sender, recipient: pushover.NewRecipient("user-key")}

	require.NoError(t, notifier.Notify(context.Background(), ReminderTitle, "Time to take Aspirin at 08:00"))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, ReminderTitle, sender.messages[0].Title)
	assert.Equal(t, "Time to take Aspirin at 08:00", sender.messages[0].Message)
}

func TestPushoverNotifierWrapsErrors(t *testing.T) {
	sender := &stubPushoverSender{err: errors.New("rate limited")}
	notifier := &PushoverNotifier{sender: sender, recipient: pushover.NewRecipient("user-key")}

	err := notifier.Notify(context.Background(), ReminderTitle, "body")
	require.ErrorContains(t, err, "send pushover message: rate limited")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, notifier.Notify(ctx, ReminderTitle, "body"), context.Canceled)
	assert.Len(t, sender.messages, 1)
}

func TestWriterToaster(t *testing.T) {
	var out bytes.Buffer
	toaster := NewWriterToaster(&out)
	toaster.now = func() time.Time { return time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC) }

	toaster.Toast(ToastInfo, "Time to take Aspirin at 20:00")

	assert.Equal(t, "20:00 [info] Time to take Aspirin at 20:00\n", out.String())
}

func TestNopNotifierIsUnsupported(t *testing.T) {
	permission, err := NopNotifier{}.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PermissionUnsupported, permission)
	assert.Equal(t, "unsupported", permission.String())
}
