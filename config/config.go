package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"dealgrade/server/internal/analysis"
)

type Config struct {
	Server struct {
		Port    string `env:"PORT" envDefault:"8080"`
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		// Comma separated list of allowed CORS origins
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		// Graceful shutdown budget in seconds
		ShutdownTimeout int `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	}

	Database struct {
		Path string `env:"DB_PATH" envDefault:"dealgrade.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of analyses to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before processing a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"30"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Number of goroutines analyzing the jobs of one batch
		WorkerCount int `env:"BATCH_WORKER_COUNT" envDefault:"4"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`

		// Capacity of the job queue
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"1000"`
	}

	// Optional JSON file with state multipliers and market snapshots
	MarketTablePath string `env:"MARKET_TABLE_PATH"`

	// Markets is the loaded market table, nil without MarketTablePath
	Markets *MarketTable

	// Default engine assumptions, e.g. DEAL_DOWN_PAYMENT_PCT=25
	Assumptions analysis.Assumptions `envPrefix:"DEAL_"`
}

// LoadConfig reads an optional .env file and then the environment. The
// valuation year defaults to the current year.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	cfg.Assumptions = analysis.DefaultAssumptions().AsOf(time.Now().Year())
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.MarketTablePath != "" {
		table, err := LoadMarketTable(cfg.MarketTablePath)
		if err != nil {
			return nil, err
		}
		table.Apply(&cfg.Assumptions)
		cfg.Markets = table
	}

	if err := cfg.Assumptions.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
