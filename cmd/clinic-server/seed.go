package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/madjik/clinic/internal/domain/patient"
	"github.com/madjik/clinic/pkg/visitdate"
)

var visitNotes = []string{
	"Routine checkup, no complaints.",
	"Fever and cough for three days.",
	"Blood pressure follow-up.",
	"Wound dressing changed.",
	"Prenatal visit.",
	"Medication refill.",
}

var historyNotes = []string{
	"Hypertension, maintained on amlodipine.",
	"Asthma since childhood.",
	"Type 2 diabetes.",
	"No known drug allergies.",
	"Appendectomy, 2015.",
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo patients with visits and history notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetUint64("seed")
			if n <= 0 {
				return fmt.Errorf("--patients must be positive")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			patients, visits, history := patient.NewRepos(store)
			svc := patient.NewService(store, patients, visits, history, patient.Options{})

			created, err := seedPatients(ctx, svc, gofakeit.New(seed), n)
			if err != nil {
				return fmt.Errorf("seed failed after %d patient(s): %w", created, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d patient(s).\n", created)
			return nil
		},
	}
	cmd.Flags().Int("patients", 25, "Number of patients to create")
	cmd.Flags().Uint64("seed", 1, "Random seed for reproducible data")
	return cmd
}

// seedPatients creates n fake patients, each with up to three visits and two
// history notes. Visit dates alternate between the two accepted spellings.
func seedPatients(ctx context.Context, svc *patient.Service, f *gofakeit.Faker, n int) (int, error) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		fields := patient.Fields{
			FirstName:        f.FirstName(),
			LastName:         f.LastName(),
			MiddleInitial:    strings.ToUpper(f.Letter()),
			Age:              strconv.Itoa(f.Number(1, 95)),
			Sex:              sexFromGender(f.Gender()),
			Barangay:         "Brgy. " + f.StreetName(),
			City:             f.City(),
			EmergencyContact: f.Phone(),
		}
		id, err := svc.CreatePatient(ctx, fields)
		if err != nil {
			return i, err
		}

		for v := f.Number(0, 3); v > 0; v-- {
			layout := visitdate.ISOLayout
			if v%2 == 0 {
				layout = visitdate.DisplayLayout
			}
			date := f.DateRange(start, end).Format(layout)
			if _, err := svc.AddVisit(ctx, id, date, f.RandomString(visitNotes)); err != nil {
				return i, err
			}
		}

		for h := f.Number(0, 2); h > 0; h-- {
			if _, err := svc.SaveHistoryNote(ctx, id, nil, f.RandomString(historyNotes)); err != nil {
				return i, err
			}
		}
	}
	return n, nil
}

func sexFromGender(g string) string {
	switch strings.ToLower(g) {
	case "male":
		return "M"
	case "female":
		return "F"
	default:
		return ""
	}
}
