package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	ReasoningModel      string `envconfig:"REASONING_MODEL" default:"gpt-4o-mini"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"mechanic-manuals"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Routing thresholds. These are tuning decisions, not structural
	// requirements, so they are configuration rather than constants.
	KBThreshold       float64 `envconfig:"KB_THRESHOLD" default:"0.85"`
	SMEThreshold      float64 `envconfig:"SME_THRESHOLD" default:"0.70"`
	ResearchThreshold float64 `envconfig:"RESEARCH_THRESHOLD" default:"0.70"`
	ClarifyThreshold  float64 `envconfig:"CLARIFY_THRESHOLD" default:"0.40"`

	// Confidence scoring boosts applied on top of raw vector similarity.
	ManufacturerBoost float64       `envconfig:"MANUFACTURER_BOOST" default:"0.10"`
	ModelBoost        float64       `envconfig:"MODEL_BOOST" default:"0.15"`
	VerifiedBoost     float64       `envconfig:"VERIFIED_BOOST" default:"0.10"`
	StalenessPenalty  float64       `envconfig:"STALENESS_PENALTY" default:"0.10"`
	StalenessWindow   time.Duration `envconfig:"STALENESS_WINDOW" default:"17520h"`

	// Gap priority: multiplier applied for high-value vendors.
	VendorBoost       float64  `envconfig:"VENDOR_BOOST" default:"1.5"`
	HighValueVendors  []string `envconfig:"HIGH_VALUE_VENDORS" default:"siemens,fanuc,allen-bradley"`
	MinQueryWords     int      `envconfig:"MIN_QUERY_WORDS" default:"4"`
	MaxQueryBytes     int      `envconfig:"MAX_QUERY_BYTES" default:"4096"`
	SearchLimit       int      `envconfig:"SEARCH_LIMIT" default:"10"`
	MinAtomConfidence float64  `envconfig:"MIN_ATOM_CONFIDENCE" default:"0.30"`

	// Per-call budgets for external providers. A timed-out call degrades
	// its route's confidence to zero instead of failing the query.
	EmbedTimeout  time.Duration `envconfig:"EMBED_TIMEOUT" default:"10s"`
	SearchTimeout time.Duration `envconfig:"SEARCH_TIMEOUT" default:"5s"`
	ReasonTimeout time.Duration `envconfig:"REASON_TIMEOUT" default:"15s"`

	BackfillInterval  time.Duration `envconfig:"BACKFILL_INTERVAL" default:"10s"`
	BackfillBatchSize int           `envconfig:"BACKFILL_BATCH_SIZE" default:"16"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MECHANIC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// IsHighValueVendor reports whether the canonical vendor id is in the
// configured high-value set.
func (c *Config) IsHighValueVendor(vendor string) bool {
	for _, v := range c.HighValueVendors {
		if strings.EqualFold(strings.TrimSpace(v), vendor) {
			return true
		}
	}
	return false
}
