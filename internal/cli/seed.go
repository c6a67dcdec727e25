package cli

import (
	"context"
	"fmt"
	"io"

	customersservice "tablebook/internal/customers/service"
	locationsservice "tablebook/internal/locations/service"
	reservationsservice "tablebook/internal/reservations/service"
	"tablebook/pkg/app"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"

	"github.com/spf13/cobra"
)

var demoLocations = []model.LocationInput{
	{Name: "Harbor Room", MaxPartySize: 12},
	{Name: "Rooftop Terrace", MaxPartySize: 30},
	{Name: "Chef's Counter", MaxPartySize: 6},
}

var demoCustomers = []model.CustomerInput{
	{Name: "Ada Lovelace", Email: "ada@example.com"},
	{Name: "Grace Hopper", Email: "grace@example.com"},
	{Name: "Alan Turing", Email: "alan@example.com"},
}

type seedSummary struct {
	Locations    int
	Customers    int
	Reservations int
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo locations, customers and reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(app.ServiceName)

			svc, err := openServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Close(cfg)

			summary, err := seed(cmd.Context(), svc.locations, svc.customers, svc.reservations)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
}

// seed is idempotent: locations are only inserted into an empty table and customers whose
// email already exists are skipped along with their reservations.
func seed(
	ctx context.Context,
	locations locationsservice.LocationService,
	customers customersservice.CustomerService,
	reservations reservationsservice.ReservationService,
) (seedSummary, error) {
	var summary seedSummary

	count, err := locations.Count(ctx)
	if err != nil {
		return summary, err
	}
	if count == 0 {
		for _, in := range demoLocations {
			if _, err := locations.Create(ctx, in); err != nil {
				return summary, fmt.Errorf("seed location %q: %w", in.Name, err)
			}
			summary.Locations++
		}
	}

	all, err := locations.GetAll(ctx)
	if err != nil {
		return summary, err
	}
	if len(all) == 0 {
		return summary, nil
	}

	for i, in := range demoCustomers {
		customer, err := customers.Create(ctx, in)
		if apperrors.HasCode(err, apperrors.CodeValidation) || apperrors.HasCode(err, apperrors.CodeIntegrity) {
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("seed customer %q: %w", in.Email, err)
		}
		summary.Customers++

		location := all[i%len(all)]
		_, err = reservations.Create(ctx, model.ReservationInput{
			ReservationDate: model.NewDate(2026, 11, 1+i),
			CustomerID:      customer.ID,
			LocationID:      location.ID,
			PartySize:       2 + i,
			PartyName:       customer.Name + " party",
		})
		if err != nil {
			return summary, fmt.Errorf("seed reservation for %q: %w", in.Email, err)
		}
		summary.Reservations++
	}

	return summary, nil
}

func printSummary(w io.Writer, s seedSummary) error {
	_, err := fmt.Fprintf(w, "seeded %d locations, %d customers, %d reservations\n", s.Locations, s.Customers, s.Reservations)
	return err
}
