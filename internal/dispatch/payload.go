package dispatch

// CallType tags one automated call variant.
type CallType string

const (
	CallCheckin   CallType = "checkin"
	CallFinal     CallType = "final"
	CallLateCheck CallType = "late_check"
)

// Intent is a proposed, not-yet-delivered call. It exists only within one
// sync cycle: either confirmed (dedup record written after delivery) or
// dropped (delivery failed, retried next cycle).
type Intent struct {
	ShipmentID  int64
	LoadNumber  string
	CallType    CallType
	Bucket      string
	MinutesLate *float64
	Payload     CallPayload
}

// CallPayload is one shipment entry in the outbound batch.
type CallPayload struct {
	LoadNumber string `json:"load_number"`
	ShipmentID int64  `json:"shipment_id"`

	Driver    DriverInfo    `json:"driver"`
	Delivery  DeliveryInfo  `json:"delivery"`
	Pickup    PickupInfo    `json:"pickup"`
	Equipment EquipmentInfo `json:"equipment"`
	Notes     NotesInfo     `json:"notes"`
	Carrier   PartyInfo     `json:"carrier"`
	Customer  PartyInfo     `json:"customer"`
	Owner     OwnerContact  `json:"owner"`

	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`

	CallType    CallType `json:"call_type"`
	MinutesLate *float64 `json:"minutes_late,omitempty"`
}

type DriverInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type DeliveryInfo struct {
	ETA            string       `json:"eta"`
	ETAFormatted   string       `json:"eta_formatted"`
	HoursUntil     *float64     `json:"hours_until"`
	MilesRemaining *float64     `json:"miles_remaining"`
	Location       LocationInfo `json:"location"`
}

type PickupInfo struct {
	Location LocationInfo `json:"location"`
}

type LocationInfo struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	State   string `json:"state"`
	Address string `json:"address"`
}

type EquipmentInfo struct {
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Temperature *float64 `json:"temperature"`
	TempUnits   string   `json:"temp_units"`
	Weight      *float64 `json:"weight"`
	WeightUnits string   `json:"weight_units"`
	Description string   `json:"description"`
}

// Refrigerated reports whether this equipment carries a temperature
// requirement; reefer loads sort ahead of dry freight in the batch.
func (e EquipmentInfo) Refrigerated() bool { return e.Temperature != nil }

type NotesInfo struct {
	Status    string `json:"status"`
	Pickup    string `json:"pickup"`
	Delivery  string `json:"delivery"`
	Equipment string `json:"equipment"`
}

type PartyInfo struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// OwnerContact is the resolved account-owner contact, cached per run.
type OwnerContact struct {
	Name  string `json:"name"`
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
