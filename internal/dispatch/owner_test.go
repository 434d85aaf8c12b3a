package dispatch

import (
	"testing"

	"freight-dispatch/internal/tms"
)

func TestOwnerFilter_DisabledAllowsEverything(t *testing.T) {
	f := OwnerFilter{}
	if f.Enabled() {
		t.Fatalf("empty filter must report disabled")
	}
	allowed, detail := f.Allow(testShipment())
	if !allowed || detail != "all owners allowed" {
		t.Fatalf("expected pass-through, got allowed=%v detail=%q", allowed, detail)
	}
}

func TestOwnerFilter_MatchByName(t *testing.T) {
	f := OwnerFilter{Names: []string{"Kyle Patton"}}
	if allowed, _ := f.Allow(testShipment()); !allowed {
		t.Fatalf("expected name match to allow")
	}

	f = OwnerFilter{Names: []string{"Someone Else"}}
	allowed, detail := f.Allow(testShipment())
	if allowed {
		t.Fatalf("expected deny for unlisted name")
	}
	if detail != "Kyle Patton (ID: 5564)" {
		t.Fatalf("unexpected deny detail %q", detail)
	}
}

func TestOwnerFilter_MatchByID(t *testing.T) {
	f := OwnerFilter{IDs: []string{"5564"}}
	if allowed, _ := f.Allow(testShipment()); !allowed {
		t.Fatalf("expected id 5564 to allow")
	}

	f = OwnerFilter{IDs: []string{"9999"}}
	if allowed, _ := f.Allow(testShipment()); allowed {
		t.Fatalf("expected id mismatch to deny")
	}
}

func TestOwnerFilter_FirstActiveOrderDecides(t *testing.T) {
	s := testShipment()
	s.CustomerOrder = []tms.CustomerOrder{
		{Deleted: true, Customer: tms.Customer{Owner: tms.NamedRef{ID: 5564, Name: "Kyle Patton"}}},
		{Customer: tms.Customer{Owner: tms.NamedRef{ID: 9999, Name: "Dana Reyes"}}},
	}
	f := OwnerFilter{IDs: []string{"5564"}}
	if allowed, _ := f.Allow(s); allowed {
		t.Fatalf("deleted order's owner must not count")
	}
}

func TestOwnerFilter_NoOwner(t *testing.T) {
	s := testShipment()
	s.CustomerOrder = nil
	f := OwnerFilter{Names: []string{"Kyle Patton"}}
	allowed, detail := f.Allow(s)
	if allowed || detail != "no owner" {
		t.Fatalf("expected deny with no owner, got allowed=%v detail=%q", allowed, detail)
	}
}
