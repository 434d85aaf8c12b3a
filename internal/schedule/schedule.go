package schedule

import "time"

// Mode tags the current monitoring period.
type Mode string

const (
	ModeBusiness  Mode = "BUSINESS"
	ModeOvernight Mode = "OVERNIGHT"
)

// ReferenceZone is the wall-clock zone dispatch operates in.
const ReferenceZone = "America/New_York"

// Classifier decides whether a given instant falls in the overnight period.
// Overnight covers local hour >= StartHour or < EndHour; everything else is
// business hours. Pure function of wall-clock time, no side effects.
type Classifier struct {
	Location  *time.Location
	StartHour int
	EndHour   int
}

func NewClassifier(startHour, endHour int) Classifier {
	loc, err := time.LoadLocation(ReferenceZone)
	if err != nil {
		loc = time.UTC
	}
	return Classifier{Location: loc, StartHour: startHour, EndHour: endHour}
}

func (c Classifier) Classify(now time.Time) Mode {
	h := now.In(c.Location).Hour()
	if h >= c.StartHour || h < c.EndHour {
		return ModeOvernight
	}
	return ModeBusiness
}

// DayBucket returns the calendar bucket a recurring overnight check belongs
// to. Hours before the overnight end hour belong to the previous day's
// bucket, so one overnight period (e.g. 6 PM through 8 AM next day) shares a
// single bucket.
func (c Classifier) DayBucket(now time.Time) string {
	local := now.In(c.Location)
	if local.Hour() < c.EndHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}
