package model

import (
	"strings"

	"tablebook/pkg/sanitizer"
)

const (
	CustomerName  = "name"
	CustomerEmail = "email"
)

var customerRules = map[string]string{
	CustomerName:  "required",
	CustomerEmail: "required,contains=@",
}

type Customer struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Reservations []*Reservation `db:"-"`
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewCustomer(in CustomerInput) (*Customer, error) {
	c := &Customer{}
	if err := c.SetName(in.Name); err != nil {
		return nil, err
	}
	if err := c.SetEmail(in.Email); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Customer) SetName(name string) error {
	name = sanitizer.TrimAndNormalize(name)
	if err := checkField(CustomerName, name, customerRules[CustomerName]); err != nil {
		return err
	}
	c.Name = name
	return nil
}

// SetEmail checks the address format only. Uniqueness needs the store and is checked by the
// customer service inside the unit of work that inserts the row.
func (c *Customer) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := checkField(CustomerEmail, email, customerRules[CustomerEmail]); err != nil {
		return err
	}
	c.Email = email
	return nil
}

func ErrEmailTaken() *ValidationError {
	return NewValidationError(CustomerEmail, "email must be unique")
}

// Fields returns the serializable form of c. Nested reservations omit their customer.
func (c *Customer) Fields(only ...string) map[string]any {
	out := c.columns()
	if wants(only, "customer_reservations") {
		reservations := make([]map[string]any, 0, len(c.Reservations))
		for _, r := range c.Reservations {
			reservations = append(reservations, r.fields(false, true))
		}
		out["customer_reservations"] = reservations
	}
	return pick(out, only)
}

func (c *Customer) columns() map[string]any {
	return map[string]any{
		"id":    c.ID,
		"name":  c.Name,
		"email": c.Email,
	}
}
