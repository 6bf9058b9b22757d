package config

import "time"

// Config is the full runtime configuration, bound from flags and
// environment variables by kong. Defaults are fail-soft: a fresh checkout
// runs in dev mode against a local database with no environment set.
type Config struct {
	HTTPAddr string `help:"HTTP listen address." env:"GATEWARDEN_HTTP_ADDR" default:":8080"`
	Env      string `help:"Runtime environment." env:"GATEWARDEN_ENV" enum:"dev,prod" default:"dev"`
	DBPath   string `help:"SQLite database path." env:"GATEWARDEN_DB_PATH" default:"./data/gatewarden.db"`

	MinValiditySpan time.Duration `help:"Smallest allowed credential validity window." env:"GATEWARDEN_MIN_VALIDITY_SPAN" default:"1h"`

	DebounceWindow        time.Duration `help:"Per-device duplicate scan suppression window." env:"GATEWARDEN_DEBOUNCE_WINDOW" default:"750ms"`
	DebounceSweepInterval time.Duration `help:"How often stale debounce entries are evicted." env:"GATEWARDEN_DEBOUNCE_SWEEP_INTERVAL" default:"30s"`

	Debug bool `help:"Enable debug logging." env:"GATEWARDEN_DEBUG"`
}
