package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig captures all tunable parameters for the commute processes.
// Defaults are overridden by an optional YAML file and then by environment
// variables, so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MetricsAddr     string        `yaml:"metrics_addr"`

	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDriversKey string        `yaml:"redis_drivers_key"`
	GeocodeCacheTTL time.Duration `yaml:"geocode_cache_ttl"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroup   string   `yaml:"kafka_group"`

	PGDSN string `yaml:"pg_dsn"`

	AMQPURL        string        `yaml:"amqp_url"`
	AMQPExchange   string        `yaml:"amqp_exchange"`
	NotifyEndpoint string        `yaml:"notify_endpoint"`
	NotifyTimeout  time.Duration `yaml:"notify_timeout"`

	GoogleMapsAPIKey string `yaml:"google_maps_api_key"`
	GeocodeRegion    string `yaml:"geocode_region"`
	GeocodeCity      string `yaml:"geocode_city"`

	JWTSecret string `yaml:"jwt_secret"`
	ZonesFile string `yaml:"zones_file"`

	OfficeLat        float64       `yaml:"office_lat"`
	OfficeLng        float64       `yaml:"office_lng"`
	PreLoginBuffer   time.Duration `yaml:"pre_login_buffer"`
	PostLogoutBuffer time.Duration `yaml:"post_logout_buffer"`
	ETACacheTTL      time.Duration `yaml:"eta_cache_ttl"`

	MatcherTopN int `yaml:"matcher_top_n"`

	LogLevel      string `yaml:"log_level"`
	RunMigrations bool   `yaml:"migrate"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:         ":8080",
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     10 * time.Second,
		IdleTimeout:      120 * time.Second,
		ShutdownTimeout:  15 * time.Second,
		MetricsAddr:      ":2112",
		RedisDriversKey:  "drivers:available",
		GeocodeCacheTTL:  24 * time.Hour,
		KafkaTopic:       "driver-status",
		KafkaGroup:       "commute-matching-consumer",
		AMQPExchange:     "commute_topic",
		NotifyTimeout:    3 * time.Second,
		GeocodeRegion:    "in",
		GeocodeCity:      "Bangalore",
		OfficeLat:        12.9698,
		OfficeLng:        77.7500,
		PreLoginBuffer:   15 * time.Minute,
		PostLogoutBuffer: 20 * time.Minute,
		ETACacheTTL:      10 * time.Minute,
		MatcherTopN:      10,
		LogLevel:         "info",
	}
}

// LoadServerConfig builds the configuration. path may be empty.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := defaultServerConfig()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)
	setStringFromEnv(&cfg.MetricsAddr, "METRICS_ADDR")

	setStringFromEnv(&cfg.RedisAddr, "REDIS_ADDR")
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	setStringFromEnv(&cfg.RedisDriversKey, "REDIS_DRIVERS_KEY")
	setDurationFromEnv(&cfg.GeocodeCacheTTL, "GEOCODE_CACHE_TTL", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setStringFromEnv(&cfg.KafkaGroup, "KAFKA_GROUP")

	setStringFromEnv(&cfg.PGDSN, "PG_DSN")

	setStringFromEnv(&cfg.AMQPURL, "AMQP_URL")
	setStringFromEnv(&cfg.AMQPExchange, "AMQP_EXCHANGE")
	setStringFromEnv(&cfg.NotifyEndpoint, "NOTIFY_ENDPOINT")
	setDurationFromEnv(&cfg.NotifyTimeout, "NOTIFY_TIMEOUT", &errs)

	setStringFromEnv(&cfg.GoogleMapsAPIKey, "GOOGLE_MAPS_API_KEY")
	setStringFromEnv(&cfg.GeocodeRegion, "GEOCODE_REGION")
	setStringFromEnv(&cfg.GeocodeCity, "GEOCODE_CITY")

	setStringFromEnv(&cfg.JWTSecret, "JWT_SECRET")
	setStringFromEnv(&cfg.ZonesFile, "ZONES_FILE")

	setFloatFromEnv(&cfg.OfficeLat, "OFFICE_LAT", &errs)
	setFloatFromEnv(&cfg.OfficeLng, "OFFICE_LNG", &errs)
	setDurationFromEnv(&cfg.PreLoginBuffer, "PRE_LOGIN_BUFFER", &errs)
	setDurationFromEnv(&cfg.PostLogoutBuffer, "POST_LOGOUT_BUFFER", &errs)
	setDurationFromEnv(&cfg.ETACacheTTL, "ETA_CACHE_TTL", &errs)

	setIntFromEnv(&cfg.MatcherTopN, "MATCHER_TOP_N", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("MIGRATE"); v != "" {
		cfg.RunMigrations = strings.EqualFold(v, "true")
	}

	if cfg.MatcherTopN <= 0 {
		errs = append(errs, fmt.Errorf("MATCHER_TOP_N must be > 0"))
	}
	if cfg.OfficeLat < -90 || cfg.OfficeLat > 90 || cfg.OfficeLng < -180 || cfg.OfficeLng > 180 {
		errs = append(errs, fmt.Errorf("office coordinates out of range"))
	}

	return cfg, errors.Join(errs...)
}

func loadFile(path string, cfg *ServerConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
