package dispatch

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoETA means the GPS estimate is missing or unparsable; the shipment is
// not callable this cycle.
var ErrNoETA = errors.New("dispatch: no usable gps eta")

const displayTimeFormat = "Mon, Jan 2 at 3:04 PM MST"

// DeliveryEstimate is the reconciled delivery instant for one shipment.
// Never persisted; recomputed every cycle.
type DeliveryEstimate struct {
	GPSETA    time.Time
	Effective time.Time

	// HoursUntil is rounded to one decimal and may be negative (overdue).
	HoursUntil float64

	// ExactHours is the unrounded value; window comparisons use this so a
	// shipment 2.99h out does not round its way into a 3.0h window.
	ExactHours float64

	// Formatted renders Effective in the destination's local zone.
	Formatted string
}

// ResolveDelivery merges the GPS ETA with an optional appointment into one
// effective delivery time: whichever is later wins. The region code only
// affects display formatting.
func ResolveDelivery(gpsETA, appointment, region string, now time.Time) (DeliveryEstimate, error) {
	eta, err := parseTimestamp(gpsETA)
	if err != nil {
		return DeliveryEstimate{}, ErrNoETA
	}

	effective := eta
	if appt, err := parseTimestamp(appointment); err == nil && appt.After(eta) {
		effective = appt
	}

	exact := effective.Sub(now).Hours()

	return DeliveryEstimate{
		GPSETA:     eta,
		Effective:  effective,
		HoursUntil: roundOneDecimal(exact),
		ExactHours: exact,
		Formatted:  effective.In(zoneForRegion(region)).Format(displayTimeFormat),
	}, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339, v)
}

func roundOneDecimal(f float64) float64 {
	return decimal.NewFromFloat(f).Round(1).InexactFloat64()
}
