package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fire/internal/classify"
	"fire/internal/config"
	"fire/internal/geocode"
	"fire/internal/ingest"
	"fire/internal/pipeline"
	"fire/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fire",
	Short: "FIRE - Freedom Intelligent Routing Engine",
	Long: `FIRE routes off-hours customer tickets to branch managers.

Each ticket is classified by an LLM (type, sentiment, priority,
language), geocoded, matched to the nearest office, filtered by
manager skills and assigned via a deterministic round-robin.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fire.yaml", "path to config file")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(geocodeOfficesCmd)
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.Database.Path, logger)
}

func newClassifier(heuristicOnly bool) classify.Classifier {
	if heuristicOnly {
		return classify.NewHeuristicClassifier()
	}
	return classify.NewOpenAIClassifier(classify.OpenAIConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.GetLLMTimeout(),
		MaxRetries: cfg.LLM.MaxRetries,
		ImageDir:   cfg.DataDir + "/images",
	}, logger)
}

// newAssistant shares the classifier's LLM endpoint. Without an API
// key it degrades to a fixed "not available" answer.
func newAssistant() classify.Assistant {
	return classify.NewOpenAIAssistant(classify.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.GetLLMTimeout(),
	}, logger)
}

func newGeocoder() geocode.Geocoder {
	if cfg.Geocoder.GoogleAPIKey != "" {
		return geocode.NewGoogleGeocoder(geocode.GoogleConfig{
			APIKey:  cfg.Geocoder.GoogleAPIKey,
			Timeout: cfg.GetGeocoderTimeout(),
		}, logger)
	}
	return geocode.NewNominatimGeocoder(geocode.NominatimConfig{
		BaseURL:     cfg.Geocoder.BaseURL,
		UserAgent:   cfg.Geocoder.UserAgent,
		CountryCode: cfg.Geocoder.CountryCode,
		Timeout:     cfg.GetGeocoderTimeout(),
	}, logger)
}

func newProcessor(s *store.Store, heuristicOnly bool) *pipeline.Processor {
	return pipeline.NewProcessor(s, newClassifier(heuristicOnly), newGeocoder(), pipeline.Config{
		DomesticCountry:    cfg.Routing.DomesticCountry,
		RequireHubFallback: cfg.Routing.RequireHubFallback,
	}, logger)
}

func newSeeder(s *store.Store) *ingest.Seeder {
	return ingest.NewSeeder(s, newGeocoder(), cfg.Routing.DomesticCountry, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
