package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/commute-matching/internal/models"
)

// Redis keeps driver profiles in hashes and the available driver ids in a set.
type Redis struct {
	client redis.Cmdable
	key    string
	logger *slog.Logger
}

func NewRedis(client redis.Cmdable, key string, logger *slog.Logger) *Redis {
	if key == "" {
		key = "drivers:available"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, key: key, logger: logger}
}

func (r *Redis) ApplyStatus(ctx context.Context, st models.DriverStatus) error {
	const op = "directory.Redis.ApplyStatus"
	fields := map[string]interface{}{
		"id":        st.DriverID,
		"available": strconv.FormatBool(st.Available),
		"updated":   time.Now().Format(time.RFC3339),
	}
	if st.Name != "" {
		fields["name"] = st.Name
	}
	if st.Phone != "" {
		fields["phone"] = st.Phone
	}
	if st.ServiceArea != "" {
		fields["service_area"] = st.ServiceArea
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, metaKey(st.DriverID), fields)
		if st.Available {
			p.SAdd(ctx, r.key, st.DriverID)
		} else {
			p.SRem(ctx, r.key, st.DriverID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAvailable skips profiles that fail validation and logs them.
func (r *Redis) ListAvailable(ctx context.Context) ([]models.DriverCandidate, error) {
	const op = "directory.Redis.ListAvailable"
	ids, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sort.Strings(ids)

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	if _, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, metaKey(id))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.DriverCandidate, 0, len(ids))
	for i, id := range ids {
		d, err := fromMeta(id, cmds[i].Val())
		if err != nil {
			r.logger.WarnContext(ctx, "skipping invalid driver profile", "driver_id", id, "error", err)
			continue
		}
		if d.Matchable() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Redis) Lookup(ctx context.Context, id string) (models.DriverCandidate, bool, error) {
	const op = "directory.Redis.Lookup"
	m, err := r.client.HGetAll(ctx, metaKey(id)).Result()
	if err != nil {
		return models.DriverCandidate{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if len(m) == 0 {
		return models.DriverCandidate{}, false, nil
	}
	d, err := fromMeta(id, m)
	if err != nil {
		return models.DriverCandidate{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return d, true, nil
}

func fromMeta(id string, m map[string]string) (models.DriverCandidate, error) {
	name := m["name"]
	if strings.TrimSpace(name) == "" {
		name = id
	}
	return models.NewDriverCandidate(id, name, m["phone"], m["service_area"], m["available"] == "true")
}

func metaKey(id string) string { return "driver:meta:" + id }
