package tms

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Shipment status codes used by the dispatcher.
const (
	StatusEnRoute         = "2105"
	StatusDelivered       = "2107"
	StatusReadyForBilling = "2108"
	StatusCanceled        = "2113"
	StatusRouteComplete   = "2116"
	StatusTenderRejected  = "2119"
)

// Shipment is a read-only snapshot from the TMS. The list endpoint returns a
// sparse version (id, customId, status); detail fills the rest.
type Shipment struct {
	ID          int64           `json:"id"`
	CustomID    string          `json:"customId"`
	Status      Status          `json:"status"`
	GlobalRoute []Stop          `json:"globalRoute"`
	CarrierOrder []CarrierOrder `json:"carrierOrder"`
	CustomerOrder []CustomerOrder `json:"customerOrder"`
	Equipment   []Equipment     `json:"equipment"`
}

type Status struct {
	Code  CodeValue `json:"code"`
	Notes string    `json:"notes"`
}

type CodeValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Stop struct {
	Name        string       `json:"name"`
	StopType    CodeValue    `json:"stopType"`
	State       string       `json:"state"`
	Address     Address      `json:"address"`
	ETAToStop   *StopETA     `json:"etaToStop"`
	Appointment *Appointment `json:"appointment"`
	Notes       string       `json:"notes"`
}

const (
	StopTypePickup   = "Pickup"
	StopTypeDelivery = "Delivery"

	StopStateOpen      = "OPEN"
	StopStateCompleted = "COMPLETED"
)

type Address struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
}

type StopETA struct {
	ETAValue          string   `json:"etaValue"`
	FormattedETAValue string   `json:"formattedEtaValue"`
	NextStopMiles     *float64 `json:"nextStopMiles"`
}

type Appointment struct {
	Date string `json:"date"`
}

type CarrierOrder struct {
	Deleted bool     `json:"deleted"`
	Carrier NamedRef `json:"carrier"`
	Drivers []Driver `json:"drivers"`
}

type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Driver struct {
	Context DriverContext `json:"context"`
}

type DriverContext struct {
	Name   string  `json:"name"`
	Phones []Phone `json:"phones"`
}

type Phone struct {
	Number    string `json:"number"`
	IsPrimary bool   `json:"isPrimary"`
}

type CustomerOrder struct {
	Deleted  bool     `json:"deleted"`
	Customer Customer `json:"customer"`
}

type Customer struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Owner NamedRef `json:"owner"`
}

type Equipment struct {
	Type        FlexValue `json:"type"`
	Size        FlexValue `json:"size"`
	Temp        *float64  `json:"temp"`
	TempUnits   FlexValue `json:"tempUnits"`
	Weight      *float64  `json:"weight"`
	WeightUnits FlexValue `json:"weightUnits"`
	Description string    `json:"description"`
}

// User is an owner contact record from the users endpoint.
type User struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email []UserEmail `json:"email"`
	Phone []Phone     `json:"phone"`
}

type UserEmail struct {
	Email     string `json:"email"`
	IsPrimary bool   `json:"isPrimary"`
}

// FlexValue absorbs fields the TMS serializes either as a bare scalar or as
// an object with a "value" member.
type FlexValue struct {
	Value string
}

func (f *FlexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		f.Value = ""
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		f.Value = obj.Value
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &f.Value)
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	f.Value = strconv.FormatFloat(n, 'f', -1, 64)
	return nil
}

func (f FlexValue) MarshalJSON() ([]byte, error) {
	if f.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
