package agentstore

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return store
}

func TestCredentialRoundTripAcrossReopen(t *testing.T) {
	path := t.TempDir()
	store := openTestStore(t, path)

	if _, ok, err := store.Credential(); err != nil || ok {
		t.Fatalf("expected no credential on a fresh store, got ok=%v err=%v", ok, err)
	}

	issuedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	want := Credential{APIURL: "http://localhost:8080", Email: "me@example.com", Token: "jwt", UserID: 4, IssuedAt: issuedAt}
	if err := store.SaveCredential(want); err != nil {
		t.Fatalf("SaveCredential returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened := openTestStore(t, path)
	defer reopened.Close()

	got, ok, err := reopened.Credential()
	if err != nil || !ok {
		t.Fatalf("expected saved credential, got ok=%v err=%v", ok, err)
	}
	if got.Token != want.Token || got.UserID != want.UserID || !got.IssuedAt.Equal(issuedAt) {
		t.Fatalf("unexpected credential %#v", got)
	}

	if err := reopened.ClearCredential(); err != nil {
		t.Fatalf("ClearCredential returned error: %v", err)
	}
	if _, ok, err := reopened.Credential(); err != nil || ok {
		t.Fatalf("expected credential cleared, got ok=%v err=%v", ok, err)
	}
	if err := reopened.ClearCredential(); err != nil {
		t.Fatalf("clearing twice returned error: %v", err)
	}
}

func TestSaveCredentialRequiresToken(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	defer store.Close()

	if err := store.SaveCredential(Credential{Email: "me@example.com"}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNotificationsToggleDefaultsToEnabled(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	defer store.Close()

	enabled, err := store.NotificationsEnabled()
	if err != nil || !enabled {
		t.Fatalf("expected default enabled, got %v err=%v", enabled, err)
	}

	if err := store.SetNotificationsEnabled(false); err != nil {
		t.Fatalf("SetNotificationsEnabled returned error: %v", err)
	}
	enabled, err = store.NotificationsEnabled()
	if err != nil || enabled {
		t.Fatalf("expected disabled, got %v err=%v", enabled, err)
	}
}
