package dedup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type memStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestKey_BucketOnlyWhenProvided(t *testing.T) {
	plain := Key("checkin", 42, "")
	if plain != "motus:in_transit:checkin:42" {
		t.Fatalf("unexpected key %q", plain)
	}
	bucketed := Key("late_check", 42, "2026-03-10")
	if bucketed != "motus:in_transit:late_check:2026-03-10:42" {
		t.Fatalf("unexpected bucketed key %q", bucketed)
	}
}

func TestGate_RecordThenAlreadyTriggered(t *testing.T) {
	store := newMemStore()
	g := NewGate(store, 48*time.Hour, slog.Default())

	ctx := context.Background()
	if g.AlreadyTriggered(ctx, "checkin", 7, "") {
		t.Fatalf("expected fresh shipment not triggered")
	}
	if err := g.Record(ctx, "checkin", 7, "", "L-7"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !g.AlreadyTriggered(ctx, "checkin", 7, "") {
		t.Fatalf("expected triggered after record")
	}
	// Different call type is independent.
	if g.AlreadyTriggered(ctx, "final", 7, "") {
		t.Fatalf("expected final untriggered")
	}
	if got := store.ttls[Key("checkin", 7, "")]; got != 48*time.Hour {
		t.Fatalf("expected 48h ttl, got %v", got)
	}
	if !strings.Contains(store.values[Key("checkin", 7, "")], `"load_number":"L-7"`) {
		t.Fatalf("expected metadata in record value")
	}
}

func TestGate_BucketsIsolatePeriods(t *testing.T) {
	g := NewGate(newMemStore(), time.Hour, slog.Default())
	ctx := context.Background()

	if err := g.Record(ctx, "late_check", 9, "2026-03-10", "L-9"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !g.AlreadyTriggered(ctx, "late_check", 9, "2026-03-10") {
		t.Fatalf("expected triggered within same bucket")
	}
	if g.AlreadyTriggered(ctx, "late_check", 9, "2026-03-11") {
		t.Fatalf("expected next bucket to reset")
	}
}

func TestGate_NilStoreFailsOpen(t *testing.T) {
	g := NewGate(nil, time.Hour, slog.Default())
	ctx := context.Background()

	if g.Enabled() {
		t.Fatalf("expected disabled gate")
	}
	if g.AlreadyTriggered(ctx, "checkin", 1, "") {
		t.Fatalf("expected not triggered without store")
	}
	if err := g.Record(ctx, "checkin", 1, "", "L-1"); err != nil {
		t.Fatalf("record without store must not error, got %v", err)
	}
}

func TestGate_ReadErrorFailsOpen(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	g := NewGate(store, time.Hour, slog.Default())

	if g.AlreadyTriggered(context.Background(), "checkin", 1, "") {
		t.Fatalf("expected store error to read as not triggered")
	}
}
