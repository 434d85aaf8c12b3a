package dispatch

import (
	"sort"
	"time"

	"freight-dispatch/internal/schedule"
)

// Batch is the single outbound request for one sync cycle.
type Batch struct {
	Shipments []CallPayload `json:"shipments"`

	TotalCalls     int `json:"total_calls"`
	CheckinCalls   int `json:"checkin_calls"`
	FinalCalls     int `json:"final_calls"`
	LateCheckCalls int `json:"late_check_calls"`

	Mode      schedule.Mode `json:"mode"`
	Timestamp string        `json:"timestamp"`
}

// missing hours-until sorts after every real value
const hoursUntilLast = 999

// assembleBatch orders the cycle's intents and packages them: late checks
// first, refrigerated loads before dry freight, then most urgent delivery
// first.
func assembleBatch(intents []Intent, mode schedule.Mode, now time.Time) Batch {
	sorted := make([]Intent, len(intents))
	copy(sorted, intents)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		aLate, bLate := a.CallType == CallLateCheck, b.CallType == CallLateCheck
		if aLate != bLate {
			return aLate
		}

		aReefer, bReefer := a.Payload.Equipment.Refrigerated(), b.Payload.Equipment.Refrigerated()
		if aReefer != bReefer {
			return aReefer
		}

		return sortHours(a) < sortHours(b)
	})

	b := Batch{
		Shipments: make([]CallPayload, 0, len(sorted)),
		Mode:      mode,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	for _, intent := range sorted {
		b.Shipments = append(b.Shipments, intent.Payload)
		b.TotalCalls++
		switch intent.CallType {
		case CallCheckin:
			b.CheckinCalls++
		case CallFinal:
			b.FinalCalls++
		case CallLateCheck:
			b.LateCheckCalls++
		}
	}
	return b
}

func sortHours(in Intent) float64 {
	if in.Payload.Delivery.HoursUntil == nil {
		return hoursUntilLast
	}
	return *in.Payload.Delivery.HoursUntil
}
