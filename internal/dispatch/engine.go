package dispatch

import (
	"context"
	"log/slog"
	"time"

	"freight-dispatch/internal/config"
	"freight-dispatch/internal/dedup"
	"freight-dispatch/internal/schedule"
	"freight-dispatch/internal/tms"
)

// terminalStatuses are shipments no call should ever fire for.
var terminalStatuses = map[string]bool{
	tms.StatusDelivered:       true,
	tms.StatusReadyForBilling: true,
	tms.StatusCanceled:        true,
	tms.StatusRouteComplete:   true,
	tms.StatusTenderRejected:  true,
}

// IsTerminalStatus reports whether a status code excludes a shipment from
// dispatch (delivered, canceled, billing, route complete, tender rejected).
func IsTerminalStatus(code string) bool { return terminalStatuses[code] }

// Settings are the engine tunables, passed explicitly at construction so the
// engine is testable with arbitrary parameter sets.
type Settings struct {
	// Check-in and final windows, in hours until effective delivery.
	// Bounds are inclusive on both ends.
	CheckinMin float64
	CheckinMax float64
	FinalMin   float64
	FinalMax   float64

	LateThreshold time.Duration

	Owners OwnerFilter
}

func SettingsFromConfig(cfg config.SyncConfig) Settings {
	return Settings{
		CheckinMin:    cfg.CheckinWindowMin,
		CheckinMax:    cfg.CheckinWindowMax,
		FinalMin:      cfg.FinalWindowMin,
		FinalMax:      cfg.FinalWindowMax,
		LateThreshold: cfg.LateThreshold,
		Owners: OwnerFilter{
			Names: cfg.AllowedOwners,
			IDs:   cfg.AllowedOwnerIDs,
		},
	}
}

// Outcome classifies why a shipment produced the intents it did (possibly
// none) in one cycle.
type Outcome string

const (
	OutcomeCalled        Outcome = "called"
	OutcomeInvalidStatus Outcome = "invalid_status"
	OutcomeNoDelivery    Outcome = "no_delivery_stop"
	OutcomeNoETA         Outcome = "no_eta"
	OutcomeNoDriverPhone Outcome = "no_driver_phone"
	OutcomeOwnerFiltered Outcome = "owner_filtered"
	OutcomeAlreadyCalled Outcome = "already_called"
	OutcomeOutsideWindow Outcome = "outside_window"

	// OutcomeMonitored marks overnight shipments that are on time:
	// watched, not called.
	OutcomeMonitored Outcome = "monitored"
)

type Evaluation struct {
	Intents []Intent
	Outcome Outcome
}

// Engine decides which call types fire for one shipment. It has no side
// effects beyond dedup reads; records are written by the sync cycle after
// the batch is confirmed delivered.
//
// Overnight mode fires only the late check, and only for drivers behind
// schedule past the threshold. Business mode evaluates the check-in and
// final windows independently; both may fire in one cycle for degenerate
// short hauls.
type Engine struct {
	Settings   Settings
	Gate       *dedup.Gate
	Classifier schedule.Classifier

	Now func() time.Time
	Log *slog.Logger
}

func NewEngine(settings Settings, gate *dedup.Gate, classifier schedule.Classifier, log *slog.Logger) *Engine {
	return &Engine{Settings: settings, Gate: gate, Classifier: classifier, Now: time.Now, Log: log}
}

func (e *Engine) Evaluate(ctx context.Context, s tms.Shipment, owner OwnerContact, mode schedule.Mode) Evaluation {
	if IsTerminalStatus(s.Status.Code.Key) {
		return Evaluation{Outcome: OutcomeInvalidStatus}
	}

	delivery := findDeliveryStop(s.GlobalRoute)
	if delivery == nil {
		e.Log.Debug("no open delivery stop", "load", s.CustomID)
		return Evaluation{Outcome: OutcomeNoDelivery}
	}
	if delivery.ETAToStop == nil || delivery.ETAToStop.ETAValue == "" {
		e.Log.Debug("no gps eta", "load", s.CustomID)
		return Evaluation{Outcome: OutcomeNoETA}
	}

	driver := extractDriver(s)
	if driver.Phone == "" {
		e.Log.Debug("no driver phone", "load", s.CustomID)
		return Evaluation{Outcome: OutcomeNoDriverPhone}
	}

	if allowed, detail := e.Settings.Owners.Allow(s); !allowed {
		e.Log.Debug("owner not in allowed list", "load", s.CustomID, "owner", detail)
		return Evaluation{Outcome: OutcomeOwnerFiltered}
	}

	now := e.Now()
	appointment := ""
	if delivery.Appointment != nil {
		appointment = delivery.Appointment.Date
	}
	est, err := ResolveDelivery(delivery.ETAToStop.ETAValue, appointment, delivery.Address.State, now)
	if err != nil {
		e.Log.Debug("gps eta unparsable", "load", s.CustomID)
		return Evaluation{Outcome: OutcomeNoETA}
	}

	payload := e.buildPayload(s, delivery, driver, est, owner, now)

	if mode == schedule.ModeOvernight {
		return e.evaluateOvernight(ctx, s, appointment, delivery.ETAToStop.ETAValue, payload, now)
	}
	return e.evaluateBusiness(ctx, s, est, payload)
}

func (e *Engine) evaluateOvernight(ctx context.Context, s tms.Shipment, appointment, gpsETA string, payload CallPayload, now time.Time) Evaluation {
	lateness := DriverLateness(gpsETA, appointment, e.Settings.LateThreshold)
	if !lateness.Late {
		return Evaluation{Outcome: OutcomeMonitored}
	}

	bucket := e.Classifier.DayBucket(now)
	if e.Gate.AlreadyTriggered(ctx, string(CallLateCheck), s.ID, bucket) {
		return Evaluation{Outcome: OutcomeAlreadyCalled}
	}

	payload.CallType = CallLateCheck
	payload.MinutesLate = lateness.Minutes
	return Evaluation{
		Outcome: OutcomeCalled,
		Intents: []Intent{{
			ShipmentID:  s.ID,
			LoadNumber:  s.CustomID,
			CallType:    CallLateCheck,
			Bucket:      bucket,
			MinutesLate: lateness.Minutes,
			Payload:     payload,
		}},
	}
}

func (e *Engine) evaluateBusiness(ctx context.Context, s tms.Shipment, est DeliveryEstimate, payload CallPayload) Evaluation {
	var intents []Intent
	deduped := false

	windows := []struct {
		callType CallType
		min, max float64
	}{
		{CallCheckin, e.Settings.CheckinMin, e.Settings.CheckinMax},
		{CallFinal, e.Settings.FinalMin, e.Settings.FinalMax},
	}

	for _, w := range windows {
		if est.ExactHours < w.min || est.ExactHours > w.max {
			continue
		}
		if e.Gate.AlreadyTriggered(ctx, string(w.callType), s.ID, "") {
			deduped = true
			continue
		}
		p := payload
		p.CallType = w.callType
		intents = append(intents, Intent{
			ShipmentID: s.ID,
			LoadNumber: s.CustomID,
			CallType:   w.callType,
			Payload:    p,
		})
	}

	switch {
	case len(intents) > 0:
		return Evaluation{Intents: intents, Outcome: OutcomeCalled}
	case deduped:
		return Evaluation{Outcome: OutcomeAlreadyCalled}
	default:
		return Evaluation{Outcome: OutcomeOutsideWindow}
	}
}

func (e *Engine) buildPayload(s tms.Shipment, delivery *tms.Stop, driver DriverInfo, est DeliveryEstimate, owner OwnerContact, now time.Time) CallPayload {
	hours := est.HoursUntil
	return CallPayload{
		LoadNumber: s.CustomID,
		ShipmentID: s.ID,
		Driver:     driver,
		Delivery: DeliveryInfo{
			ETA:            delivery.ETAToStop.ETAValue,
			ETAFormatted:   est.Formatted,
			HoursUntil:     &hours,
			MilesRemaining: delivery.ETAToStop.NextStopMiles,
			Location:       extractLocation(delivery),
		},
		Pickup:    PickupInfo{Location: extractLocation(findPickupStop(s.GlobalRoute))},
		Equipment: extractEquipment(s),
		Notes:     extractNotes(s),
		Carrier:   extractCarrier(s),
		Customer:  extractCustomer(s),
		Owner:     owner,
		Source:    "motus_in_transit",
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
