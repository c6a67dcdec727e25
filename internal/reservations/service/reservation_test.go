package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"tablebook/internal/reservations/events"
	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"

	"github.com/lib/pq"
)

// memoryRepository keeps reservations in a map so service flows can be followed end to end.
type memoryRepository struct {
	rows   map[int64]model.Reservation
	nextID int64

	createErr error
	updateErr error
	findErr   error
}

func newMemoryRepository(existing ...model.Reservation) *memoryRepository {
	repo := &memoryRepository{rows: make(map[int64]model.Reservation), nextID: 1}
	for _, r := range existing {
		repo.rows[r.ID] = r
		if r.ID >= repo.nextID {
			repo.nextID = r.ID + 1
		}
	}
	return repo
}

func (m *memoryRepository) Create(_ context.Context, _ postgres.Querier, reservation *model.Reservation) error {
	if m.createErr != nil {
		return m.createErr
	}
	reservation.ID = m.nextID
	m.nextID++
	m.rows[reservation.ID] = *reservation
	return nil
}

func (m *memoryRepository) FindByID(_ context.Context, _ postgres.Querier, id int64) (*model.Reservation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	row.Customer = &model.Customer{ID: row.CustomerID, Name: "Ada", Email: "ada@example.com"}
	row.Location = &model.Location{ID: row.LocationID, Name: "Rooftop", MaxPartySize: 10}
	return &row, nil
}

func (m *memoryRepository) FindAll(_ context.Context, _ postgres.Querier) ([]*model.Reservation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []*model.Reservation{}
	for id := int64(1); id < m.nextID; id++ {
		if row, ok := m.rows[id]; ok {
			out = append(out, &row)
		}
	}
	return out, nil
}

func (m *memoryRepository) Update(_ context.Context, _ postgres.Querier, reservation *model.Reservation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.rows[reservation.ID]; !ok {
		return reservationserrors.ErrNotFound
	}
	m.rows[reservation.ID] = *reservation
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, _ postgres.Querier, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) ExecuteTransaction(ctx context.Context, fn postgres.TransactionFunc) error {
	f.calls++
	return fn(ctx, nil)
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestService(repo *memoryRepository) (ReservationService, *recordingPublisher) {
	pub := &recordingPublisher{}
	cfg := &config.Config{Log: logger.Discard()}
	return NewReservationService(repo, nil, &fakeTxManager{}, pub, cfg), pub
}

func stored() model.Reservation {
	return model.Reservation{
		ID:              5,
		PartyName:       "Birthday",
		PartySize:       4,
		ReservationDate: model.NewDate(2026, 3, 14),
		CustomerID:      1,
		LocationID:      2,
	}
}

func validInput() model.ReservationInput {
	return model.ReservationInput{
		ReservationDate: model.NewDate(2026, 3, 14),
		CustomerID:      1,
		LocationID:      2,
		PartySize:       4,
		PartyName:       "Birthday",
	}
}

func assertCode(t *testing.T, err error, code, msg string) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != code {
		t.Errorf("expected code %s, got %s", code, appErr.Code)
	}
	if msg != "" && appErr.Message != msg {
		t.Errorf("expected message %q, got %q", msg, appErr.Message)
	}
}

func TestCreate(t *testing.T) {
	repo := newMemoryRepository()
	svc, pub := newTestService(repo)

	res, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 1 || res.Customer == nil || res.Location == nil {
		t.Errorf("expected reloaded reservation with relations, got %+v", res)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TypeCreated {
		t.Errorf("expected one created event, got %+v", pub.events)
	}
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(in *model.ReservationInput)
		createErr  error
		expectCode string
		expectMsg  string
	}{
		{
			name:       "missing party name",
			mutate:     func(in *model.ReservationInput) { in.PartyName = "   " },
			expectCode: apperrors.CodeValidation,
			expectMsg:  "party_name is required",
		},
		{
			name:       "negative party size",
			mutate:     func(in *model.ReservationInput) { in.PartySize = -1 },
			expectCode: apperrors.CodeValidation,
		},
		{
			name:       "missing date",
			mutate:     func(in *model.ReservationInput) { in.ReservationDate = model.Date{} },
			expectCode: apperrors.CodeValidation,
			expectMsg:  "reservation_date is required",
		},
		{
			name:       "dangling customer",
			createErr:  fmt.Errorf("%w: fk", reservationserrors.ErrCustomerNotFound),
			expectCode: apperrors.CodeIntegrity,
			expectMsg:  "customer_id does not reference an existing customer",
		},
		{
			name:       "dangling location",
			createErr:  fmt.Errorf("%w: fk", reservationserrors.ErrLocationNotFound),
			expectCode: apperrors.CodeIntegrity,
			expectMsg:  "location_id does not reference an existing location",
		},
		{
			name:       "check constraint",
			createErr:  fmt.Errorf("failed to insert reservation: %w", &pq.Error{Code: "23514"}),
			expectCode: apperrors.CodeIntegrity,
		},
		{
			name:       "storage failure",
			createErr:  errors.New("connection reset"),
			expectCode: apperrors.CodeInternal,
			expectMsg:  "Failed to create reservation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepository()
			repo.createErr = tt.createErr
			svc, pub := newTestService(repo)

			in := validInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			_, err := svc.Create(context.Background(), in)
			assertCode(t, err, tt.expectCode, tt.expectMsg)
			if len(pub.events) != 0 {
				t.Errorf("expected no events, got %d", len(pub.events))
			}
		})
	}
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	repo := newMemoryRepository()
	svc, pub := newTestService(repo)
	pub.err = errors.New("broker down")

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("expected success despite publish failure, got %v", err)
	}
	if len(repo.rows) != 1 {
		t.Errorf("expected reservation to be stored, got %d rows", len(repo.rows))
	}
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService(newMemoryRepository(stored()))

	res, err := svc.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PartyName != "Birthday" {
		t.Errorf("unexpected reservation %+v", res)
	}

	_, err = svc.GetByID(context.Background(), 6)
	assertCode(t, err, apperrors.CodeNotFound, "Reservation not found")
}

func TestGetAll_StorageFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.findErr = errors.New("connection reset")
	svc, _ := newTestService(repo)

	_, err := svc.GetAll(context.Background())
	assertCode(t, err, apperrors.CodeInternal, "Failed to retrieve reservations")
}

func patchOf(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var patch map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		t.Fatalf("bad patch fixture: %v", err)
	}
	return patch
}

func TestUpdate(t *testing.T) {
	repo := newMemoryRepository(stored())
	svc, pub := newTestService(repo)

	res, err := svc.Update(context.Background(), 5, patchOf(t, `{"party_size": 6, "reservation_date": "2026-04-01"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PartySize != 6 || res.ReservationDate.String() != "2026-04-01" {
		t.Errorf("patch not applied: %+v", res)
	}
	if res.PartyName != "Birthday" {
		t.Errorf("untouched field changed: %q", res.PartyName)
	}
	if repo.rows[5].PartySize != 6 {
		t.Errorf("expected stored party size 6, got %d", repo.rows[5].PartySize)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TypeUpdated {
		t.Errorf("expected one updated event, got %+v", pub.events)
	}
}

func TestUpdate_EmptyPatch(t *testing.T) {
	repo := newMemoryRepository(stored())
	svc, pub := newTestService(repo)

	res, err := svc.Update(context.Background(), 5, map[string]json.RawMessage{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 5 || res.PartySize != 4 {
		t.Errorf("expected unchanged reservation, got %+v", res)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no event for empty patch, got %d", len(pub.events))
	}
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		id         int64
		patch      string
		updateErr  error
		expectCode string
		expectMsg  string
	}{
		{"missing reservation", 9, `{"party_size": 2}`, nil, apperrors.CodeNotFound, "Reservation not found"},
		{"missing reservation with empty patch", 9, `{}`, nil, apperrors.CodeNotFound, "Reservation not found"},
		{"unknown field", 5, `{"id": 7}`, nil, apperrors.CodeInvalidInput, "id is not a patchable field"},
		{"null value", 5, `{"party_name": null}`, nil, apperrors.CodeInvalidInput, "party_name cannot be null"},
		{"wrong type", 5, `{"party_size": "six"}`, nil, apperrors.CodeInvalidInput, "party_size must be an integer"},
		{"bad date", 5, `{"reservation_date": "14/03/2026"}`, nil, apperrors.CodeInvalidInput, ""},
		{"rejected value", 5, `{"party_name": ""}`, nil, apperrors.CodeValidation, "party_name is required"},
		{
			"dangling location", 5, `{"location_id": 99}`,
			fmt.Errorf("%w: fk", reservationserrors.ErrLocationNotFound),
			apperrors.CodeIntegrity, "location_id does not reference an existing location",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepository(stored())
			repo.updateErr = tt.updateErr
			svc, pub := newTestService(repo)

			_, err := svc.Update(context.Background(), tt.id, patchOf(t, tt.patch))
			assertCode(t, err, tt.expectCode, tt.expectMsg)
			if repo.rows[5] != stored() {
				t.Errorf("stored reservation changed: %+v", repo.rows[5])
			}
			if len(pub.events) != 0 {
				t.Errorf("expected no events, got %d", len(pub.events))
			}
		})
	}
}

func TestDelete(t *testing.T) {
	repo := newMemoryRepository(stored())
	svc, pub := newTestService(repo)

	if err := svc.Delete(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.rows[5]; ok {
		t.Error("expected reservation to be removed")
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TypeDeleted || pub.events[0].ReservationID != 5 {
		t.Errorf("expected one deleted event for 5, got %+v", pub.events)
	}

	err := svc.Delete(context.Background(), 5)
	assertCode(t, err, apperrors.CodeNotFound, "Reservation not found")
}
