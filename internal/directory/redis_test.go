package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/commute-matching/internal/models"
)

// fakeRedis keeps hashes and sets in maps. It implements the commands the
// Redis directory issues; anything else panics through the nil embedded
// interface.
type fakeRedis struct {
	redis.Cmdable
	hashes map[string]map[string]string
	sets   map[string]map[string]bool
	err    error
	txs    int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hashes: map[string]map[string]string{}, sets: map[string]map[string]bool{}}
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	if f.err != nil {
		return redis.NewStringSliceResult(nil, f.err)
	}
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	if f.err != nil {
		return redis.NewMapStringStringResult(nil, f.err)
	}
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *fakeRedis) Pipelined(_ context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, fn(fakePipe{f: f})
}

func (f *fakeRedis) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	f.txs++
	return f.Pipelined(ctx, fn)
}

// fakePipe applies queued commands immediately.
type fakePipe struct {
	redis.Pipeliner
	f *fakeRedis
}

func (p fakePipe) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	h := p.f.hashes[key]
	if h == nil {
		h = map[string]string{}
		p.f.hashes[key] = h
	}
	for k, v := range values[0].(map[string]interface{}) {
		h[k] = v.(string)
	}
	return redis.NewIntResult(int64(len(h)), nil)
}

func (p fakePipe) SAdd(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	s := p.f.sets[key]
	if s == nil {
		s = map[string]bool{}
		p.f.sets[key] = s
	}
	for _, m := range members {
		s[m.(string)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (p fakePipe) SRem(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	for _, m := range members {
		delete(p.f.sets[key], m.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (p fakePipe) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	return p.f.HGetAll(ctx, key)
}

func newRedisDirectory(rc redis.Cmdable) *Redis {
	return NewRedis(rc, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRedisApplyStatusAndList(t *testing.T) {
	ctx := context.Background()
	rc := newFakeRedis()
	r := newRedisDirectory(rc)

	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d2", Name: "Ravi", ServiceArea: "Whitefield", Available: true}))
	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d1", Name: "Anil", Phone: "9800000001", ServiceArea: "Varthur", Available: true}))
	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d3", Name: "Suma", Available: true}))
	assert.Equal(t, 3, rc.txs)
	assert.Equal(t, "Varthur", rc.hashes["driver:meta:d1"]["service_area"])

	got, err := r.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID)
	assert.Equal(t, "9800000001", got[0].Phone)
	assert.Equal(t, "d2", got[1].ID)

	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d1", Available: false}))
	assert.False(t, rc.sets["drivers:available"]["d1"])
	assert.Equal(t, "Anil", rc.hashes["driver:meta:d1"]["name"])

	got, err = r.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d2", got[0].ID)
}

func TestRedisListSkipsInvalidProfiles(t *testing.T) {
	ctx := context.Background()
	rc := newFakeRedis()
	r := newRedisDirectory(rc)
	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d1", Name: "Anil", ServiceArea: "Varthur", Available: true}))
	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d2", Name: "Ravi", Phone: "12", ServiceArea: "Hebbal", Available: true}))

	got, err := r.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].ID)
}

func TestRedisLookup(t *testing.T) {
	ctx := context.Background()
	rc := newFakeRedis()
	r := newRedisDirectory(rc)
	require.NoError(t, r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d5", Name: "Kiran", Available: true}))

	d, found, err := r.Lookup(ctx, "d5")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, d.Available)
	assert.Empty(t, d.ServiceArea)

	_, found, err = r.Lookup(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	rc := newFakeRedis()
	rc.err = errors.New("connection refused")
	r := newRedisDirectory(rc)

	_, err := r.ListAvailable(ctx)
	assert.ErrorIs(t, err, rc.err)
	assert.ErrorContains(t, err, "directory.Redis.ListAvailable")

	err = r.ApplyStatus(ctx, models.DriverStatus{DriverID: "d1", Available: true})
	assert.ErrorIs(t, err, rc.err)

	_, _, err = r.Lookup(ctx, "d1")
	assert.ErrorIs(t, err, rc.err)
}
