package models

// Slot is a fixed, publishable booking window within one day. Start and End
// are minutes from midnight (e.g. 600 for 10:00). A booked slot always
// references the appointment holding it.
type Slot struct {
	ID            string `bson:"id" json:"id"`
	Start         int    `bson:"start" json:"start"`
	End           int    `bson:"end" json:"end"`
	IsBooked      bool   `bson:"isBooked" json:"isBooked"`
	AppointmentID string `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
}

// Availability is the ledger record for one barber on one calendar date
// ("YYYY-MM-DD"). Slots are ordered and must not overlap.
type Availability struct {
	ID       string `bson:"id" json:"id"`
	BarberID string `bson:"barberId" json:"barberId"`
	Date     string `bson:"date" json:"date"`
	Timezone string `bson:"timezone" json:"timezone"`
	Slots    []Slot `bson:"slots" json:"slots"`
}

// BookedSlotRef locates a booked slot for the reconciliation sweep.
type BookedSlotRef struct {
	BarberID      string `bson:"barberId"`
	Date          string `bson:"date"`
	SlotID        string `bson:"slotId"`
	Start         int    `bson:"start"`
	End           int    `bson:"end"`
	AppointmentID string `bson:"appointmentId"`
}

// Overlaps reports whether two half-open intervals [start1,end1) and
// [start2,end2) intersect.
func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && start2 < end1
}
