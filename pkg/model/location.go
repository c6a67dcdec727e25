package model

import "tablebook/pkg/sanitizer"

const (
	LocationName         = "name"
	LocationMaxPartySize = "max_party_size"
)

var locationRules = map[string]string{
	LocationName:         "required",
	LocationMaxPartySize: "required,gt=0",
}

type Location struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	MaxPartySize int            `db:"max_party_size"`
	Reservations []*Reservation `db:"-"`
}

type LocationInput struct {
	Name         string `json:"name"`
	MaxPartySize int    `json:"max_party_size"`
}

func NewLocation(in LocationInput) (*Location, error) {
	l := &Location{}
	if err := l.SetName(in.Name); err != nil {
		return nil, err
	}
	if err := l.SetMaxPartySize(in.MaxPartySize); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Location) SetName(name string) error {
	name = sanitizer.TrimAndNormalize(name)
	if err := checkField(LocationName, name, locationRules[LocationName]); err != nil {
		return err
	}
	l.Name = name
	return nil
}

func (l *Location) SetMaxPartySize(size int) error {
	if err := checkField(LocationMaxPartySize, size, locationRules[LocationMaxPartySize]); err != nil {
		return err
	}
	l.MaxPartySize = size
	return nil
}

// Fields returns the serializable form of l. Nested reservations omit their location.
func (l *Location) Fields(only ...string) map[string]any {
	out := l.columns()
	if wants(only, "location_reservations") {
		reservations := make([]map[string]any, 0, len(l.Reservations))
		for _, r := range l.Reservations {
			reservations = append(reservations, r.fields(true, false))
		}
		out["location_reservations"] = reservations
	}
	return pick(out, only)
}

func (l *Location) columns() map[string]any {
	return map[string]any{
		"id":             l.ID,
		"name":           l.Name,
		"max_party_size": l.MaxPartySize,
	}
}
