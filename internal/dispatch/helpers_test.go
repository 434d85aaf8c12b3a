package dispatch

import (
	"context"
	"log/slog"
	"time"

	"freight-dispatch/internal/dedup"
	"freight-dispatch/internal/schedule"
	"freight-dispatch/internal/tms"
)

// testNow is 11:00 AM New York (business hours) on a fixed Tuesday.
var testNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

// overnightNow is 11:00 PM New York the same day.
var overnightNow = time.Date(2026, time.March, 11, 3, 0, 0, 0, time.UTC)

type memStore struct {
	values map[string]string
}

func newMemStore() *memStore { return &memStore{values: map[string]string{}} }

func (m *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func testSettings() Settings {
	return Settings{
		CheckinMin:    3,
		CheckinMax:    4,
		FinalMin:      0,
		FinalMax:      0.5,
		LateThreshold: 30 * time.Minute,
	}
}

func newTestEngine(store dedup.Store, now time.Time) *Engine {
	gate := dedup.NewGate(store, 48*time.Hour, slog.Default())
	e := NewEngine(testSettings(), gate, schedule.NewClassifier(18, 8), slog.Default())
	e.Now = func() time.Time { return now }
	return e
}

type shipmentOpt func(*tms.Shipment)

func testShipment(opts ...shipmentOpt) tms.Shipment {
	miles := 118.4
	s := tms.Shipment{
		ID:       42,
		CustomID: "L-42",
		Status:   tms.Status{Code: tms.CodeValue{Key: tms.StatusEnRoute}},
		GlobalRoute: []tms.Stop{
			{
				Name:     "Shipper Dock A",
				StopType: tms.CodeValue{Value: tms.StopTypePickup},
				State:    tms.StopStateCompleted,
				Address:  tms.Address{Line1: "1 Warehouse Way", City: "Atlanta", State: "GA"},
			},
			{
				Name:     "Receiver DC",
				StopType: tms.CodeValue{Value: tms.StopTypeDelivery},
				State:    tms.StopStateOpen,
				Address:  tms.Address{Line1: "9 Dock Rd", City: "Dallas", State: "TX"},
				ETAToStop: &tms.StopETA{
					ETAValue:      testNow.Add(3*time.Hour + 24*time.Minute).Format(time.RFC3339),
					NextStopMiles: &miles,
				},
			},
		},
		CarrierOrder: []tms.CarrierOrder{
			{
				Carrier: tms.NamedRef{ID: 77, Name: "Acme Trucking"},
				Drivers: []tms.Driver{
					{Context: tms.DriverContext{Name: "juan carlos 123", Phones: []tms.Phone{{Number: "+15551230000"}}}},
				},
			},
		},
		CustomerOrder: []tms.CustomerOrder{
			{Customer: tms.Customer{ID: 5, Name: "BigBox Retail", Owner: tms.NamedRef{ID: 5564, Name: "Kyle Patton"}}},
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func withETA(eta time.Time) shipmentOpt {
	return func(s *tms.Shipment) {
		s.GlobalRoute[1].ETAToStop.ETAValue = eta.Format(time.RFC3339)
	}
}

func withAppointment(appt time.Time) shipmentOpt {
	return func(s *tms.Shipment) {
		s.GlobalRoute[1].Appointment = &tms.Appointment{Date: appt.Format(time.RFC3339)}
	}
}

func withReefer(temp float64) shipmentOpt {
	return func(s *tms.Shipment) {
		s.Equipment = []tms.Equipment{{
			Type:      tms.FlexValue{Value: "Reefer"},
			Temp:      &temp,
			TempUnits: tms.FlexValue{Value: "F"},
		}}
	}
}

func withoutDriverPhone() shipmentOpt {
	return func(s *tms.Shipment) {
		s.CarrierOrder[0].Drivers[0].Context.Phones = nil
	}
}

func withStatus(code string) shipmentOpt {
	return func(s *tms.Shipment) {
		s.Status.Code.Key = code
	}
}

func withoutOpenDelivery() shipmentOpt {
	return func(s *tms.Shipment) {
		s.GlobalRoute[1].State = tms.StopStateCompleted
	}
}
