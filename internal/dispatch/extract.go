package dispatch

import (
	"regexp"
	"strings"
	"unicode"

	"freight-dispatch/internal/tms"
)

var nonLetterPattern = regexp.MustCompile(`[^a-zA-Z ]`)

// cleanDriverName strips non-letters, keeps the first token and title-cases
// it, e.g. "JUAN carlos 123" becomes "Juan". The automated call reads this
// name aloud, so it has to be a single clean first name.
func cleanDriverName(name string) string {
	cleaned := nonLetterPattern.ReplaceAllString(name, "")
	parts := strings.Fields(cleaned)
	if len(parts) == 0 {
		return ""
	}
	return titleCase(parts[0])
}

func titleCase(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// findDeliveryStop returns the open delivery stop, the shipment's active
// delivery target. Nil means the shipment is not callable this cycle.
func findDeliveryStop(route []tms.Stop) *tms.Stop {
	for i := range route {
		if route[i].StopType.Value == tms.StopTypeDelivery && route[i].State == tms.StopStateOpen {
			return &route[i]
		}
	}
	return nil
}

func findPickupStop(route []tms.Stop) *tms.Stop {
	for i := range route {
		if route[i].StopType.Value == tms.StopTypePickup {
			return &route[i]
		}
	}
	return nil
}

// extractDriver picks the last driver (most recent assignment) of the first
// non-deleted carrier order that has a phone number on file.
func extractDriver(s tms.Shipment) DriverInfo {
	for _, co := range s.CarrierOrder {
		if co.Deleted || len(co.Drivers) == 0 {
			continue
		}
		drv := co.Drivers[len(co.Drivers)-1].Context
		phone := ""
		if len(drv.Phones) > 0 {
			phone = drv.Phones[0].Number
		}
		if phone == "" {
			continue
		}
		return DriverInfo{Name: cleanDriverName(drv.Name), Phone: phone}
	}
	return DriverInfo{}
}

func extractEquipment(s tms.Shipment) EquipmentInfo {
	if len(s.Equipment) == 0 {
		return EquipmentInfo{}
	}
	eq := s.Equipment[0]
	out := EquipmentInfo{
		Type:        eq.Type.Value,
		Size:        eq.Size.Value,
		Temperature: eq.Temp,
		Weight:      eq.Weight,
		WeightUnits: eq.WeightUnits.Value,
		Description: eq.Description,
	}
	if eq.Temp != nil {
		out.TempUnits = eq.TempUnits.Value
	}
	return out
}

func extractNotes(s tms.Shipment) NotesInfo {
	notes := NotesInfo{Status: s.Status.Notes}
	if pickup := findPickupStop(s.GlobalRoute); pickup != nil {
		notes.Pickup = pickup.Notes
	}
	if delivery := findDeliveryStop(s.GlobalRoute); delivery != nil {
		notes.Delivery = delivery.Notes
	}
	if len(s.Equipment) > 0 {
		notes.Equipment = s.Equipment[0].Description
	}
	return notes
}

func extractLocation(stop *tms.Stop) LocationInfo {
	if stop == nil {
		return LocationInfo{}
	}
	return LocationInfo{
		Name:    stop.Name,
		City:    stop.Address.City,
		State:   stop.Address.State,
		Address: stop.Address.Line1,
	}
}

func extractCarrier(s tms.Shipment) PartyInfo {
	for _, co := range s.CarrierOrder {
		if co.Deleted {
			continue
		}
		return PartyInfo{Name: co.Carrier.Name, ID: co.Carrier.ID}
	}
	return PartyInfo{}
}

func extractCustomer(s tms.Shipment) PartyInfo {
	if len(s.CustomerOrder) == 0 {
		return PartyInfo{}
	}
	c := s.CustomerOrder[0].Customer
	return PartyInfo{Name: c.Name, ID: c.ID}
}

// extractOwnerID returns the owner of the first non-deleted customer order,
// or zero when no owner can be located.
func extractOwnerID(s tms.Shipment) int64 {
	for _, co := range s.CustomerOrder {
		if co.Deleted {
			continue
		}
		if co.Customer.Owner.ID != 0 {
			return co.Customer.Owner.ID
		}
	}
	return 0
}

// ownerContactFromUser reduces a user record to the contact fields the call
// payload carries: primary email and primary phone only.
func ownerContactFromUser(u tms.User) OwnerContact {
	out := OwnerContact{Name: u.Name, ID: u.ID}
	for _, e := range u.Email {
		if e.IsPrimary {
			out.Email = e.Email
			break
		}
	}
	for _, p := range u.Phone {
		if p.IsPrimary {
			out.Phone = p.Number
			break
		}
	}
	return out
}
