package dispatch

import "time"

// Lateness compares the GPS ETA against the scheduled appointment.
type Lateness struct {
	Late bool

	// Minutes is how far behind schedule the driver is, rounded to one
	// decimal. Only set when Late; under-threshold positives report nothing.
	Minutes *float64
}

// DriverLateness fails closed: a missing or unparsable timestamp on either
// side reads as not late.
func DriverLateness(gpsETA, appointment string, threshold time.Duration) Lateness {
	eta, err := parseTimestamp(gpsETA)
	if err != nil {
		return Lateness{}
	}
	appt, err := parseTimestamp(appointment)
	if err != nil {
		return Lateness{}
	}

	behind := eta.Sub(appt)
	if behind <= threshold {
		return Lateness{}
	}
	minutes := roundOneDecimal(behind.Minutes())
	return Lateness{Late: true, Minutes: &minutes}
}
