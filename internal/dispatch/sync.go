package dispatch

import (
	"context"
	"log/slog"
	"time"

	"freight-dispatch/internal/dedup"
	"freight-dispatch/internal/schedule"
	"freight-dispatch/internal/tms"
)

// ShipmentAPI is the slice of the TMS client the sync cycle needs.
type ShipmentAPI interface {
	ListAllShipments(ctx context.Context, status string, pageSize, maxPages int) ([]tms.Shipment, error)
	GetShipmentDetail(ctx context.Context, id int64) (tms.Shipment, error)
	GetUserDetail(ctx context.Context, id int64) (tms.User, error)
}

// BatchSender delivers one assembled batch to the call-trigger transport.
type BatchSender interface {
	Send(ctx context.Context, b Batch) error
}

// Syncer runs one complete dispatch cycle: list en-route shipments, evaluate
// each, deliver the batch, then record dedup markers.
type Syncer struct {
	API    ShipmentAPI
	Sender BatchSender
	Engine *Engine
	Gate   *dedup.Gate

	PageSize int
	MaxPages int

	Log *slog.Logger
	Now func() time.Time
}

type SyncError struct {
	Load  string   `json:"load,omitempty"`
	Loads []string `json:"loads,omitempty"`
	Error string   `json:"error"`
}

// Result is the structured cycle summary. The cycle always returns one, even
// on partial failure; only a failed shipment listing is fatal.
type Result struct {
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Timestamp string        `json:"timestamp"`
	Mode      schedule.Mode `json:"mode"`

	ShipmentsTotal int `json:"shipments_total"`
	AlreadyCalled  int `json:"already_called"`
	OwnerFiltered  int `json:"owner_filtered"`
	Skipped        int `json:"skipped"`
	Monitored      int `json:"monitored"`

	CheckinCalls   int `json:"checkin_calls"`
	FinalCalls     int `json:"final_calls"`
	LateCheckCalls int `json:"late_check_calls"`
	TotalCalls     int `json:"total_calls"`

	DedupDisabled bool        `json:"dedup_disabled,omitempty"`
	Errors        []SyncError `json:"errors,omitempty"`
}

// Run executes one cycle. Shipments are evaluated sequentially; a
// per-shipment fetch error skips only that shipment.
func (s *Syncer) Run(ctx context.Context) Result {
	now := s.Now()
	mode := s.Engine.Classifier.Classify(now)

	res := Result{
		Success:   true,
		Timestamp: now.UTC().Format(time.RFC3339),
		Mode:      mode,
	}

	s.Log.Info("sync start", "mode", mode, "timestamp", res.Timestamp)

	if !s.Gate.Enabled() {
		s.Log.Warn("dedup store unavailable, deduplication disabled for this cycle")
		res.DedupDisabled = true
	}

	shipments, err := s.API.ListAllShipments(ctx, tms.StatusEnRoute, s.PageSize, s.MaxPages)
	if err != nil {
		s.Log.Error("shipment listing failed", "err", err)
		res.Success = false
		res.Error = err.Error()
		return res
	}

	// The list endpoint can lag status transitions; drop terminal codes
	// before doing any per-shipment work.
	active := shipments[:0]
	for _, sh := range shipments {
		if !IsTerminalStatus(sh.Status.Code.Key) {
			active = append(active, sh)
		}
	}
	res.ShipmentsTotal = len(active)
	if len(active) == 0 {
		s.Log.Info("sync complete", "mode", mode, "shipments", 0, "calls", 0)
		return res
	}

	var intents []Intent
	ownerCache := map[int64]OwnerContact{}

	for _, sh := range active {
		// Business hours: when both window calls are already recorded there
		// is nothing left to fire, so skip the detail fetch entirely.
		if mode == schedule.ModeBusiness &&
			s.Gate.AlreadyTriggered(ctx, string(CallCheckin), sh.ID, "") &&
			s.Gate.AlreadyTriggered(ctx, string(CallFinal), sh.ID, "") {
			res.AlreadyCalled++
			continue
		}

		detail, err := s.API.GetShipmentDetail(ctx, sh.ID)
		if err != nil {
			s.Log.Warn("shipment detail fetch failed", "load", sh.CustomID, "err", err)
			res.Errors = append(res.Errors, SyncError{Load: sh.CustomID, Error: err.Error()})
			continue
		}

		owner := s.resolveOwner(ctx, detail, ownerCache)

		ev := s.Engine.Evaluate(ctx, detail, owner, mode)
		switch ev.Outcome {
		case OutcomeCalled:
			intents = append(intents, ev.Intents...)
		case OutcomeAlreadyCalled:
			res.AlreadyCalled++
		case OutcomeOwnerFiltered:
			res.OwnerFiltered++
		case OutcomeMonitored:
			res.Monitored++
		default:
			res.Skipped++
		}
	}

	if len(intents) > 0 {
		batch := assembleBatch(intents, mode, now)
		res.TotalCalls = batch.TotalCalls
		res.CheckinCalls = batch.CheckinCalls
		res.FinalCalls = batch.FinalCalls
		res.LateCheckCalls = batch.LateCheckCalls

		if err := s.Sender.Send(ctx, batch); err != nil {
			// No dedup records on failure: every intent stays eligible next
			// cycle rather than being silently lost.
			loads := make([]string, 0, len(intents))
			for _, in := range intents {
				loads = append(loads, in.LoadNumber)
			}
			s.Log.Error("batch webhook failed", "loads", loads, "err", err)
			res.Errors = append(res.Errors, SyncError{Loads: loads, Error: "batch webhook failed: " + err.Error()})
		} else {
			for _, in := range intents {
				if err := s.Gate.Record(ctx, string(in.CallType), in.ShipmentID, in.Bucket, in.LoadNumber); err != nil {
					s.Log.Warn("dedup record write failed", "load", in.LoadNumber, "call_type", in.CallType, "err", err)
				}
			}
		}
	}

	s.Log.Info("sync complete",
		"mode", mode,
		"shipments", res.ShipmentsTotal,
		"already_called", res.AlreadyCalled,
		"owner_filtered", res.OwnerFiltered,
		"skipped", res.Skipped,
		"monitored", res.Monitored,
		"checkin", res.CheckinCalls,
		"final", res.FinalCalls,
		"late_check", res.LateCheckCalls,
		"errors", len(res.Errors),
	)
	return res
}

// resolveOwner looks up the shipment owner's contact, memoized for the run.
// A failed lookup caches the zero contact so it is not retried this cycle.
func (s *Syncer) resolveOwner(ctx context.Context, detail tms.Shipment, cache map[int64]OwnerContact) OwnerContact {
	id := extractOwnerID(detail)
	if id == 0 {
		return OwnerContact{}
	}
	if contact, ok := cache[id]; ok {
		return contact
	}
	user, err := s.API.GetUserDetail(ctx, id)
	if err != nil {
		s.Log.Warn("owner contact fetch failed", "owner_id", id, "err", err)
		cache[id] = OwnerContact{}
		return cache[id]
	}
	cache[id] = ownerContactFromUser(user)
	return cache[id]
}
