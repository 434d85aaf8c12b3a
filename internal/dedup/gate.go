package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Store is the minimal key-value contract the gate needs. The redis adapter
// implements it; tests use an in-memory map.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

const keyPrefix = "motus:in_transit"

// Gate prevents the same call from firing twice for a shipment.
//
// Failure policy is fail-open: if the store is absent or errors, calls are
// attempted rather than suppressed. A record is only written after the
// outbound batch is confirmed delivered.
type Gate struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

func NewGate(store Store, ttl time.Duration, log *slog.Logger) *Gate {
	return &Gate{store: store, ttl: ttl, log: log, now: time.Now}
}

// Enabled reports whether a backing store is configured.
func (g *Gate) Enabled() bool { return g.store != nil }

// Key returns the dedup key for a (shipment, call type) pair. Bucket is
// non-empty only for call types that reset once per overnight period.
func Key(callType string, shipmentID int64, bucket string) string {
	if bucket != "" {
		return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, callType, bucket, shipmentID)
	}
	return fmt.Sprintf("%s:%s:%d", keyPrefix, callType, shipmentID)
}

// AlreadyTriggered reports whether a valid record exists for this call.
func (g *Gate) AlreadyTriggered(ctx context.Context, callType string, shipmentID int64, bucket string) bool {
	if g.store == nil {
		return false
	}
	_, ok, err := g.store.Get(ctx, Key(callType, shipmentID, bucket))
	if err != nil {
		g.log.Warn("dedup read failed, treating as not triggered", "call_type", callType, "shipment_id", shipmentID, "err", err)
		return false
	}
	return ok
}

type record struct {
	LoadNumber string `json:"load_number"`
	CallType   string `json:"call_type"`
	CalledAt   string `json:"called_at"`
}

// Record marks a call as made. Call it only after batch delivery succeeded.
func (g *Gate) Record(ctx context.Context, callType string, shipmentID int64, bucket, loadNumber string) error {
	if g.store == nil {
		g.log.Warn("dedup store unavailable, cannot mark call as made", "load", loadNumber, "call_type", callType)
		return nil
	}
	raw, err := json.Marshal(record{
		LoadNumber: loadNumber,
		CallType:   callType,
		CalledAt:   g.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return g.store.Set(ctx, Key(callType, shipmentID, bucket), string(raw), g.ttl)
}
