package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gregdel/pushover"
)

type pushoverSender interface {
	SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error)
}

// PushoverNotifier delivers reminders through the Pushover API. Permission
// is granted as soon as an application token and a user key are configured.
type PushoverNotifier struct {
	sender    pushoverSender
	recipient *pushover.Recipient
}

func NewPushoverNotifier(token string, userKey string) (*PushoverNotifier, error) {
	token = strings.TrimSpace(token)
	userKey = strings.TrimSpace(userKey)
	if token == "" || userKey == "" {
		return nil, errors.New("pushover requires an application token and a user key")
	}
	return &PushoverNotifier{
		sender:    pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
	}, nil
}

func (notifier *PushoverNotifier) Permission() Permission {
	return PermissionGranted
}

func (notifier *PushoverNotifier) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (notifier *PushoverNotifier) Notify(ctx context.Context, title string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	message := pushover.NewMessageWithTitle(body, title)
	if _, err := notifier.sender.SendMessage(message, notifier.recipient); err != nil {
		return fmt.Errorf("send pushover message: %w", err)
	}
	return nil
}
