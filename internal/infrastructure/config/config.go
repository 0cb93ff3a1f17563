package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth        AuthConfig
	Acquisition AcquisitionConfig
	GeoNames    GeoNamesConfig
	Offline     OfflineConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	NATS        NATSConfig
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	// OperatorUser and OperatorPasswordHash (bcrypt) define the single operator account.
	OperatorUser         string        `env:"OPERATOR_USER,          default=operator"`
	OperatorPasswordHash string        `env:"OPERATOR_PASSWORD_HASH"`
	TokenTTL             time.Duration `env:"TOKEN_TTL,              default=24h"`
}

type AcquisitionConfig struct {
	StaleWindow       time.Duration `env:"STALE_WINDOW,      default=5m"`
	RegionMarginDeg   float64       `env:"REGION_MARGIN_DEG, default=0.01"`
	NetworkAvailable  bool          `env:"NETWORK_AVAILABLE, default=true"`
	ResolveTimeout    time.Duration `env:"RESOLVE_TIMEOUT,   default=30s"`
	MinInterval       time.Duration `env:"MIN_INTERVAL,      default=5s"`
	MinDistanceMeters float64       `env:"MIN_DISTANCE_M,    default=1000"`
	// MockProvider attaches the mock injector as a positioning source at startup.
	MockProvider bool `env:"MOCK_PROVIDER, default=true"`
}

type GeoNamesConfig struct {
	URL      string        `env:"GEONAMES_URL,      default=http://api.geonames.org"`
	Username string        `env:"GEONAMES_USERNAME"`
	Timeout  time.Duration `env:"GEONAMES_TIMEOUT,  default=10s"`
}

type OfflineConfig struct {
	RadiusKm float64 `env:"OFFLINE_RADIUS_KM, default=50"`
}

// Empty URI, Addr or URL disable the corresponding adapter.

type MongoConfig struct {
	URI      string        `env:"MONGO_URI"`
	Database string        `env:"MONGO_DB,      default=placebadges"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,         default=0"`
	PoolSize int           `env:"REDIS_POOL_SIZE,  default=10"`
	CacheTTL time.Duration `env:"LOOKUP_CACHE_TTL, default=24h"`
}

type NATSConfig struct {
	URL     string `env:"NATS_URL"`
	Subject string `env:"NATS_SUBJECT, default=placebadges.readings"`
}

// Load reads an optional .env file and then the environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom processes configuration from l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// MinIntervalMillis returns MinInterval in milliseconds.
func (c AcquisitionConfig) MinIntervalMillis() int64 {
	return c.MinInterval.Milliseconds()
}
