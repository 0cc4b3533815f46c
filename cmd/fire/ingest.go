package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestGeocode bool

// ingestCmd imports CSV exports into the database.
var ingestCmd = &cobra.Command{
	Use:     "ingest",
	Aliases: []string{"seed"},
	Short:   "Seed the database from CSV exports",
	Long: `Discovers the office, manager and ticket CSVs in the data
directory and imports them. Re-running skips records that already
exist, so ingestion is safe to repeat after new exports land.`,
	RunE: runIngest,
}

// geocodeOfficesCmd re-geocodes offices with missing coordinates.
var geocodeOfficesCmd = &cobra.Command{
	Use:   "geocode-offices",
	Short: "Resolve coordinates for offices that have none",
	Long: `Offices without coordinates are excluded from nearest-office
selection. This command retries geocoding for them; offices that stay
unresolved are reported and remain fallback-only.`,
	RunE: runGeocodeOffices,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestGeocode, "geocode", false, "re-geocode offices with missing coordinates after import")
}

func runIngest(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	seeder := newSeeder(s)
	counts, err := seeder.SeedFromDir(cmd.Context(), cfg.DataDir)
	if err != nil {
		return err
	}
	logger.Info("ingestion finished",
		zap.Int("offices", counts.Offices),
		zap.Int("managers", counts.Managers),
		zap.Int("tickets", counts.Tickets))

	if !ingestGeocode {
		return nil
	}
	resolved, err := seeder.ReconcileOffices(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("office geocoding finished", zap.Int("resolved", resolved))
	return nil
}

func runGeocodeOffices(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	resolved, err := newSeeder(s).ReconcileOffices(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("office geocoding finished", zap.Int("resolved", resolved))
	return nil
}
