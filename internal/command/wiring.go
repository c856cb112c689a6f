package command

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/example/commute-matching/internal/config"
	"github.com/example/commute-matching/internal/directory"
	"github.com/example/commute-matching/internal/dispatch"
	"github.com/example/commute-matching/internal/eta"
	"github.com/example/commute-matching/internal/geo"
	"github.com/example/commute-matching/internal/geocode"
	"github.com/example/commute-matching/internal/storage"
	"github.com/example/commute-matching/internal/zone"
)

// deps holds the adapters built from configuration. close releases them
// in reverse order.
type deps struct {
	cfg     config.ServerConfig
	logger  *slog.Logger
	db      *sql.DB
	redis   *redis.Client
	closers []func() error
}

func newDeps(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (*deps, error) {
	d := &deps{cfg: cfg, logger: logger}
	if cfg.PGDSN != "" {
		db, err := storage.OpenPostgres(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		d.db = db
		d.closers = append(d.closers, db.Close)
		if cfg.RunMigrations {
			if err := storage.Migrate(ctx, db, logger); err != nil {
				d.close()
				return nil, err
			}
		}
	}
	if cfg.RedisAddr != "" {
		d.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		d.closers = append(d.closers, d.redis.Close)
	}
	return d, nil
}

func (d *deps) close() {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("error while closing dependencies", "error", err)
	}
}

var errNoSharedDirectory = errors.New("KAFKA_BROKERS needs REDIS_ADDR or PG_DSN: availability updates would land in a process-local directory")

// checkStatusBackend rejects configurations where availability events flow
// through Kafka but serve and consume would each keep a private directory.
func checkStatusBackend(cfg config.ServerConfig) error {
	if len(cfg.KafkaBrokers) > 0 && cfg.RedisAddr == "" && cfg.PGDSN == "" {
		return errNoSharedDirectory
	}
	return nil
}

func (d *deps) directory() directory.Directory {
	switch {
	case d.redis != nil:
		return directory.NewRedis(d.redis, d.cfg.RedisDriversKey, d.logger)
	case d.db != nil:
		return directory.NewPostgres(d.db, d.logger)
	default:
		d.logger.Warn("no driver directory backend configured, using in-memory directory")
		return directory.NewMemory()
	}
}

func (d *deps) store() storage.AssignmentStore {
	if d.db != nil {
		return storage.NewPostgresStore(d.db)
	}
	return storage.NewMemoryStore()
}

func (d *deps) geocoder() (geocode.Geocoder, error) {
	static := geocode.NewStatic(geocode.BangaloreCentre, nil)
	if d.cfg.GoogleMapsAPIKey == "" {
		return static, nil
	}
	gg, err := geocode.NewGoogle(d.cfg.GoogleMapsAPIKey, d.cfg.GeocodeRegion, d.cfg.GeocodeCity)
	if err != nil {
		return nil, err
	}
	var g geocode.Geocoder = gg
	if d.redis != nil {
		g = geocode.NewRedisCache(g, d.redis, d.cfg.GeocodeCacheTTL, d.logger)
	}
	// unknown addresses resolve to the city centre instead of failing the trip
	return geocode.NewFallback(g, static, d.logger), nil
}

func (d *deps) notifier(ws *dispatch.WSRegistry) (*dispatch.Fanout, error) {
	channels := []dispatch.Channel{{Name: "ws", Notifier: ws}}
	if d.cfg.NotifyEndpoint != "" {
		channels = append(channels, dispatch.Channel{Name: "webhook", Notifier: dispatch.NewHTTPDispatcher(d.cfg.NotifyEndpoint, d.cfg.NotifyTimeout)})
	}
	if d.cfg.AMQPURL != "" {
		r, err := dispatch.DialRabbit(d.cfg.AMQPURL, d.cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, r.Close)
		channels = append(channels, dispatch.Channel{Name: "rabbit", Notifier: r})
	}
	return dispatch.NewFanout(d.logger, channels...), nil
}

func buildZones(cfg config.ServerConfig) (*zone.Classifier, error) {
	if cfg.ZonesFile == "" {
		return zone.NewClassifier(zone.DefaultTable()), nil
	}
	t, err := zone.LoadTableFile(cfg.ZonesFile)
	if err != nil {
		return nil, err
	}
	return zone.NewClassifier(t), nil
}

func buildEstimator(cfg config.ServerConfig) (*eta.Estimator, error) {
	ec := eta.DefaultConfig()
	ec.Office = geo.Point{Lat: cfg.OfficeLat, Lng: cfg.OfficeLng}
	ec.PreLoginBuffer = cfg.PreLoginBuffer
	ec.PostLogoutBuffer = cfg.PostLogoutBuffer
	var cache *eta.Cache
	if cfg.ETACacheTTL > 0 {
		cache = eta.NewCache(cfg.ETACacheTTL)
	}
	return eta.NewEstimator(ec, cache)
}
