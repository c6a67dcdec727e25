package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"tablebook/pkg/sanitizer"
)

const (
	ReservationDate       = "reservation_date"
	ReservationPartyName  = "party_name"
	ReservationPartySize  = "party_size"
	ReservationCustomerID = "customer_id"
	ReservationLocationID = "location_id"
)

var reservationRules = map[string]string{
	ReservationDate:       "required",
	ReservationPartyName:  "required",
	ReservationPartySize:  "gte=0",
	ReservationCustomerID: "required,gt=0",
	ReservationLocationID: "required,gt=0",
}

type Reservation struct {
	ID              int64
	PartyName       string
	PartySize       int
	ReservationDate Date
	CustomerID      int64
	LocationID      int64

	Customer *Customer
	Location *Location
}

type ReservationInput struct {
	ReservationDate Date   `json:"reservation_date"`
	CustomerID      int64  `json:"customer_id"`
	LocationID      int64  `json:"location_id"`
	PartySize       int    `json:"party_size"`
	PartyName       string `json:"party_name"`
}

func NewReservation(in ReservationInput) (*Reservation, error) {
	r := &Reservation{}
	if err := r.SetReservationDate(in.ReservationDate); err != nil {
		return nil, err
	}
	if err := r.SetCustomerID(in.CustomerID); err != nil {
		return nil, err
	}
	if err := r.SetLocationID(in.LocationID); err != nil {
		return nil, err
	}
	if err := r.SetPartySize(in.PartySize); err != nil {
		return nil, err
	}
	if err := r.SetPartyName(in.PartyName); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reservation) SetReservationDate(d Date) error {
	if err := checkField(ReservationDate, d, reservationRules[ReservationDate]); err != nil {
		return err
	}
	r.ReservationDate = d
	return nil
}

func (r *Reservation) SetPartyName(name string) error {
	name = sanitizer.TrimAndNormalize(name)
	if err := checkField(ReservationPartyName, name, reservationRules[ReservationPartyName]); err != nil {
		return err
	}
	r.PartyName = name
	return nil
}

func (r *Reservation) SetPartySize(size int) error {
	if err := checkField(ReservationPartySize, size, reservationRules[ReservationPartySize]); err != nil {
		return err
	}
	r.PartySize = size
	return nil
}

func (r *Reservation) SetCustomerID(id int64) error {
	if err := checkField(ReservationCustomerID, id, reservationRules[ReservationCustomerID]); err != nil {
		return err
	}
	if r.CustomerID != id {
		r.Customer = nil
	}
	r.CustomerID = id
	return nil
}

func (r *Reservation) SetLocationID(id int64) error {
	if err := checkField(ReservationLocationID, id, reservationRules[ReservationLocationID]); err != nil {
		return err
	}
	if r.LocationID != id {
		r.Location = nil
	}
	r.LocationID = id
	return nil
}

type patcher func(r *Reservation, raw json.RawMessage) error

var reservationPatchers = map[string]patcher{
	ReservationPartyName: func(r *Reservation, raw json.RawMessage) error {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return typeError(ReservationPartyName, "a string")
		}
		return r.SetPartyName(v)
	},
	ReservationPartySize: func(r *Reservation, raw json.RawMessage) error {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return typeError(ReservationPartySize, "an integer")
		}
		return r.SetPartySize(v)
	},
	ReservationDate: func(r *Reservation, raw json.RawMessage) error {
		var v Date
		if err := json.Unmarshal(raw, &v); err != nil {
			return NewInputError(ReservationDate, "reservation_date must be a date in YYYY-MM-DD format")
		}
		return r.SetReservationDate(v)
	},
	ReservationCustomerID: func(r *Reservation, raw json.RawMessage) error {
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return typeError(ReservationCustomerID, "an integer")
		}
		return r.SetCustomerID(v)
	},
	ReservationLocationID: func(r *Reservation, raw json.RawMessage) error {
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return typeError(ReservationLocationID, "an integer")
		}
		return r.SetLocationID(v)
	},
}

func typeError(field, kind string) *InputError {
	return NewInputError(field, fmt.Sprintf("%s must be %s", field, kind))
}

// PatchableReservationFields lists the fields ApplyPatch accepts, sorted.
func PatchableReservationFields() []string {
	fields := make([]string, 0, len(reservationPatchers))
	for name := range reservationPatchers {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// ApplyPatch assigns every field in patch through its setter. Unknown fields, nulls and
// mistyped values fail with *InputError, rejected values with *ValidationError. On error r is
// left unchanged.
func (r *Reservation) ApplyPatch(patch map[string]json.RawMessage) error {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		if _, ok := reservationPatchers[key]; !ok {
			return NewInputError(key, fmt.Sprintf("%s is not a patchable field", key))
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	next := *r
	for _, key := range keys {
		raw := patch[key]
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return NewInputError(key, fmt.Sprintf("%s cannot be null", key))
		}
		if err := reservationPatchers[key](&next, raw); err != nil {
			return err
		}
	}

	*r = next
	return nil
}

// Fields returns the serializable form of r. The nested customer and location carry their own
// columns only, never their reservation lists.
func (r *Reservation) Fields(only ...string) map[string]any {
	return pick(r.fields(true, true), only)
}

func (r *Reservation) fields(withCustomer, withLocation bool) map[string]any {
	out := map[string]any{
		"id":               r.ID,
		"party_name":       r.PartyName,
		"party_size":       r.PartySize,
		"reservation_date": r.ReservationDate,
		"customer_id":      r.CustomerID,
		"location_id":      r.LocationID,
	}
	if withCustomer {
		if r.Customer != nil {
			out["customer"] = r.Customer.columns()
		} else {
			out["customer"] = nil
		}
	}
	if withLocation {
		if r.Location != nil {
			out["location"] = r.Location.columns()
		} else {
			out["location"] = nil
		}
	}
	return out
}
