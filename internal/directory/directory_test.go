package directory

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/commute-matching/internal/models"
)

func TestMemoryListsOnlyMatchableInOrder(t *testing.T) {
	m := NewMemory(
		models.DriverCandidate{ID: "d2", Name: "Ravi", ServiceArea: "Whitefield", Available: true},
		models.DriverCandidate{ID: "d1", Name: "Anil", ServiceArea: "", Available: true},
		models.DriverCandidate{ID: "d3", Name: "Suma", ServiceArea: "Kengeri", Available: false},
		models.DriverCandidate{ID: "d4", Name: "Kiran", ServiceArea: "Hulimavu", Available: true},
	)
	got, err := m.ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d2", got[0].ID)
	assert.Equal(t, "d4", got[1].ID)
}

func TestMemoryApplyStatus(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(models.DriverCandidate{ID: "d1", Name: "Anil", Phone: "9800000001", ServiceArea: "Varthur", Available: true})

	require.NoError(t, m.ApplyStatus(ctx, models.DriverStatus{DriverID: "d1", Available: false}))
	d, ok := m.Get("d1")
	require.True(t, ok)
	assert.False(t, d.Available)
	assert.Equal(t, "Varthur", d.ServiceArea)
	assert.Equal(t, "9800000001", d.Phone)

	require.NoError(t, m.ApplyStatus(ctx, models.DriverStatus{DriverID: "d9", ServiceArea: "Girinagar", Available: true}))
	d, ok = m.Get("d9")
	require.True(t, ok)
	assert.Equal(t, "d9", d.Name)

	got, err := m.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d9", got[0].ID)
}

func TestMemoryApplyStatusRejectsInvalidProfile(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(models.DriverCandidate{ID: "d1", Name: "Anil", Phone: "9800000001", ServiceArea: "Varthur", Available: true})

	err := m.ApplyStatus(ctx, models.DriverStatus{DriverID: "d1", Phone: "12", Available: false})
	require.ErrorIs(t, err, models.ErrInvalid)
	d, _ := m.Get("d1")
	assert.True(t, d.Available)
	assert.Equal(t, "9800000001", d.Phone)

	err = m.ApplyStatus(ctx, models.DriverStatus{DriverID: "d7", Phone: "12", ServiceArea: "Hebbal", Available: true})
	require.ErrorIs(t, err, models.ErrInvalid)
	_, ok := m.Get("d7")
	assert.False(t, ok)
	got, err := m.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestMemoryLookup(t *testing.T) {
	m := NewMemory(models.DriverCandidate{ID: "d1", Name: "Anil", Available: true})
	d, found, err := m.Lookup(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Anil", d.Name)

	_, found, err = m.Lookup(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFromMeta(t *testing.T) {
	d, err := fromMeta("d1", map[string]string{"name": " Anil ", "service_area": "Varthur", "available": "true"})
	require.NoError(t, err)
	assert.True(t, d.Matchable())
	assert.Equal(t, "Anil", d.Name)

	d, err = fromMeta("d2", map[string]string{"available": "false"})
	require.NoError(t, err)
	assert.False(t, d.Matchable())
	assert.Equal(t, "d2", d.Name)

	_, err = fromMeta("d3", map[string]string{"name": "Suma", "phone": "12", "available": "true"})
	assert.ErrorIs(t, err, models.ErrInvalid)
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestScanCandidate(t *testing.T) {
	row := func(id, name string, phone, area sql.NullString, available bool) rowFunc {
		return func(dest ...any) error {
			*dest[0].(*string) = id
			*dest[1].(*string) = name
			*dest[2].(*sql.NullString) = phone
			*dest[3].(*sql.NullString) = area
			*dest[4].(*bool) = available
			return nil
		}
	}

	d, err := scanCandidate(row("d1", "Anil", sql.NullString{String: "9800000001", Valid: true}, sql.NullString{}, true))
	require.NoError(t, err)
	assert.Equal(t, "9800000001", d.Phone)
	assert.False(t, d.Matchable())

	_, err = scanCandidate(row("d2", "", sql.NullString{}, sql.NullString{String: "Hebbal", Valid: true}, true))
	assert.ErrorIs(t, err, models.ErrInvalid)

	_, err = scanCandidate(rowFunc(func(...any) error { return sql.ErrNoRows }))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
