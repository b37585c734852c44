package app

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/xenking/kart-catalog/internal/domain/auth"
	"github.com/xenking/kart-catalog/internal/search"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (CATALOG_ prefix), flags, a .env file or YAML files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL; empty keeps the catalog in memory" flag:"database-url"`
	SeedFile    string `usage:"CSV (or .csv.gz) imported at startup when the catalog is empty" flag:"seed-file"`
	Vocab       VocabConfig
	Search      SearchConfig
	Import      ImportConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// VocabConfig overrides the built-in governance vocabularies with YAML files.
type VocabConfig struct {
	TaxonomyFile   string `usage:"Category tree YAML" flag:"taxonomy-file"`
	AttributesFile string `usage:"Attribute dictionary YAML" flag:"attributes-file"`
	SynonymsFile   string `usage:"Search synonym table YAML" flag:"synonyms-file"`
}

// SearchConfig controls result limits and ranking weights.
type SearchConfig struct {
	DefaultLimit int `default:"20"  usage:"Results returned when no limit is given"`
	MaxLimit     int `default:"100" usage:"Upper bound for the limit parameter"`
	Weights      search.Weights
}

// ImportConfig controls bulk import governance.
type ImportConfig struct {
	Currency      string   `default:"INR" usage:"ISO currency of imported prices"`
	DefaultStatus string   `default:"proposed" usage:"Status of rows without a Status column"`
	Passthrough   []string `default:"Dispatch Time,Return Eligible" usage:"Columns copied into product metadata"`
	MaxBodyBytes  int64    `default:"16777216" usage:"Maximum import body size in bytes"`
	MaxTitle      int      `default:"70" usage:"Recommended maximum title length"`
	MaxDesc       int      `default:"160" usage:"Recommended maximum description length"`
}

// AuthConfig guards the operator routes. Without keys they are open.
type AuthConfig struct {
	Pepper string `usage:"HMAC pepper for operator API key hashes (CATALOG_AUTH_PEPPER)" flag:"api-key-pepper"`
	// ImportKeys entries are "name:hexhash" and grant the import scope.
	ImportKeys []string `usage:"Operator keys as name:hmac-sha256-hex" flag:"import-keys"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"300" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env, then environment variables, flags and YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CATALOG",
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if _, err := cfg.Auth.Keys(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT onto the
// CATALOG_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Keys parses ImportKeys. It returns nil when no keys are configured.
func (a AuthConfig) Keys() ([]auth.APIKeyInfo, error) {
	var keys []auth.APIKeyInfo
	for _, entry := range a.ImportKeys {
		name, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" || hash == "" {
			return nil, errors.Errorf("invalid import key %q: want name:hash", entry)
		}
		keys = append(keys, auth.APIKeyInfo{
			Name:    name,
			KeyHash: hash,
			Scopes:  []string{auth.ScopeImport},
		})
	}
	return keys, nil
}
