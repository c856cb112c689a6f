package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/commute-matching/internal/models"
)

// Directory is the driver profile source used by the matcher.
type Directory interface {
	// ListAvailable returns drivers flagged available that have a service area.
	ListAvailable(ctx context.Context) ([]models.DriverCandidate, error)
	// ApplyStatus records an availability update, creating the driver if needed.
	ApplyStatus(ctx context.Context, st models.DriverStatus) error
	// Lookup returns one driver whatever its availability. found is false
	// for unknown ids.
	Lookup(ctx context.Context, id string) (d models.DriverCandidate, found bool, err error)
}

// Memory is an in-process directory that preserves registration order.
type Memory struct {
	mu      sync.RWMutex
	order   []string
	drivers map[string]models.DriverCandidate
	updated map[string]time.Time
}

func NewMemory(drivers ...models.DriverCandidate) *Memory {
	m := &Memory{drivers: make(map[string]models.DriverCandidate), updated: make(map[string]time.Time)}
	for _, d := range drivers {
		m.Upsert(d)
	}
	return m
}

func (m *Memory) Upsert(d models.DriverCandidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[d.ID]; !ok {
		m.order = append(m.order, d.ID)
	}
	m.drivers[d.ID] = d
	m.updated[d.ID] = time.Now()
}

// ApplyStatus rejects updates that would leave an invalid profile and
// leaves the stored driver untouched in that case.
func (m *Memory) ApplyStatus(_ context.Context, st models.DriverStatus) error {
	const op = "directory.Memory.ApplyStatus"
	m.mu.Lock()
	defer m.mu.Unlock()
	id := strings.TrimSpace(st.DriverID)
	d, known := m.drivers[id]
	if !known {
		d = models.DriverCandidate{ID: id, Name: id}
	}
	mergeStatus(&d, st)
	d, err := models.NewDriverCandidate(d.ID, d.Name, d.Phone, d.ServiceArea, d.Available)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !known {
		m.order = append(m.order, d.ID)
	}
	m.drivers[d.ID] = d
	m.updated[d.ID] = time.Now()
	return nil
}

func (m *Memory) ListAvailable(_ context.Context) ([]models.DriverCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.DriverCandidate, 0, len(m.order))
	for _, id := range m.order {
		if d := m.drivers[id]; d.Matchable() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) Get(id string) (models.DriverCandidate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	return d, ok
}

func (m *Memory) Lookup(_ context.Context, id string) (models.DriverCandidate, bool, error) {
	d, ok := m.Get(id)
	return d, ok, nil
}

func mergeStatus(d *models.DriverCandidate, st models.DriverStatus) {
	d.Available = st.Available
	if v := strings.TrimSpace(st.Name); v != "" {
		d.Name = v
	}
	if v := strings.TrimSpace(st.Phone); v != "" {
		d.Phone = v
	}
	if v := strings.TrimSpace(st.ServiceArea); v != "" {
		d.ServiceArea = v
	}
}
