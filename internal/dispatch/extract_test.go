package dispatch

import (
	"testing"

	"freight-dispatch/internal/tms"
)

func TestCleanDriverName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Juan Carlos 123", "Juan"},
		{"JUAN carlos", "Juan"},
		{"mike", "Mike"},
		{"  O'Brien, Pat ", "Obrien"},
		{"911", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := cleanDriverName(tc.in); got != tc.want {
			t.Fatalf("cleanDriverName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractDriver_TakesLastDriverOfActiveOrder(t *testing.T) {
	s := testShipment()
	s.CarrierOrder = []tms.CarrierOrder{
		{Deleted: true, Drivers: []tms.Driver{{Context: tms.DriverContext{Name: "Ghost", Phones: []tms.Phone{{Number: "+10000000000"}}}}}},
		{Drivers: []tms.Driver{
			{Context: tms.DriverContext{Name: "Old Assignment", Phones: []tms.Phone{{Number: "+15550000001"}}}},
			{Context: tms.DriverContext{Name: "maria lopez", Phones: []tms.Phone{{Number: "+15550000002"}}}},
		}},
	}

	d := extractDriver(s)
	if d.Name != "Maria" {
		t.Fatalf("expected most recent driver, got %q", d.Name)
	}
	if d.Phone != "+15550000002" {
		t.Fatalf("expected that driver's phone, got %q", d.Phone)
	}
}

func TestExtractDriver_NoPhoneMeansNoDriver(t *testing.T) {
	s := testShipment(withoutDriverPhone())
	if d := extractDriver(s); d.Phone != "" {
		t.Fatalf("expected empty driver for missing phone, got %+v", d)
	}
}

func TestExtractEquipment_TempUnitsOnlyWithTemp(t *testing.T) {
	dry := extractEquipment(testShipment())
	if dry.Temperature != nil || dry.TempUnits != "" {
		t.Fatalf("expected no temperature for dry freight, got %+v", dry)
	}

	reefer := extractEquipment(testShipment(withReefer(-10)))
	if reefer.Temperature == nil || *reefer.Temperature != -10 || reefer.TempUnits != "F" {
		t.Fatalf("unexpected reefer extraction: %+v", reefer)
	}
	if !reefer.Refrigerated() {
		t.Fatalf("expected refrigerated")
	}
}

func TestExtractOwnerID_SkipsDeletedOrders(t *testing.T) {
	s := testShipment()
	s.CustomerOrder = []tms.CustomerOrder{
		{Deleted: true, Customer: tms.Customer{Owner: tms.NamedRef{ID: 111}}},
		{Customer: tms.Customer{Owner: tms.NamedRef{ID: 222}}},
	}
	if got := extractOwnerID(s); got != 222 {
		t.Fatalf("expected owner 222, got %d", got)
	}

	s.CustomerOrder = nil
	if got := extractOwnerID(s); got != 0 {
		t.Fatalf("expected zero for no owner, got %d", got)
	}
}

func TestOwnerContactFromUser_PrimaryOnly(t *testing.T) {
	u := tms.User{
		ID:   9,
		Name: "Kyle Patton",
		Email: []tms.UserEmail{
			{Email: "old@example.com"},
			{Email: "kyle@example.com", IsPrimary: true},
		},
		Phone: []tms.Phone{
			{Number: "+15550001111"},
			{Number: "+15550002222", IsPrimary: true},
		},
	}
	c := ownerContactFromUser(u)
	if c.Email != "kyle@example.com" || c.Phone != "+15550002222" {
		t.Fatalf("expected primary contact points, got %+v", c)
	}
}

func TestFindDeliveryStop_RequiresOpenState(t *testing.T) {
	s := testShipment(withoutOpenDelivery())
	if findDeliveryStop(s.GlobalRoute) != nil {
		t.Fatalf("completed delivery stop must not be the target")
	}
	if findDeliveryStop(testShipment().GlobalRoute) == nil {
		t.Fatalf("expected open delivery stop")
	}
}
