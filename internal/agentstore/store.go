package agentstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
)

var (
	credentialKey = []byte("agent:credential")
	enabledKey    = []byte("agent:notifications_enabled")
)

// Credential is the bearer token the reminder agent signs in with.
type Credential struct {
	APIURL   string    `json:"api_url"`
	Email    string    `json:"email"`
	Token    string    `json:"token"`
	UserID   uint      `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store keeps the agent's local state in badger.
type Store struct {
	db       *badger.DB
	cancelGC func()
	wg       sync.WaitGroup
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", path, err)
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at path %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	store := &Store{db: db, cancelGC: cancel}

	store.wg.Add(1)
	go func() {
		defer store.wg.Done()

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for store.db.RunValueLogGC(0.5) == nil && ctx.Err() == nil {
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return store, nil
}

func (store *Store) Close() error {
	store.cancelGC()
	store.wg.Wait()
	return store.db.Close()
}

// Credential returns the saved credential; ok is false when none is saved.
func (store *Store) Credential() (credential Credential, ok bool, err error) {
	found, err := store.get(credentialKey, &credential)
	if err != nil {
		return Credential{}, false, fmt.Errorf("failed to load credential: %w", err)
	}
	return credential, found && credential.Token != "", nil
}

func (store *Store) SaveCredential(credential Credential) error {
	if credential.Token == "" {
		return errors.New("credential token is required")
	}
	return store.set(credentialKey, credential)
}

func (store *Store) ClearCredential() error {
	return store.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(credentialKey)
	})
}

// NotificationsEnabled defaults to true until the user turns reminders off.
func (store *Store) NotificationsEnabled() (bool, error) {
	enabled := true
	if _, err := store.get(enabledKey, &enabled); err != nil {
		return false, fmt.Errorf("failed to load notifications toggle: %w", err)
	}
	return enabled, nil
}

func (store *Store) SetNotificationsEnabled(enabled bool) error {
	return store.set(enabledKey, enabled)
}

func (store *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to JSON marshal %s: %w", key, err)
	}
	return store.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, data)
	})
}

func (store *Store) get(key []byte, target any) (bool, error) {
	found := false
	err := store.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, target); err != nil {
				return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
			}
			return nil
		})
	})
	return found, err
}
