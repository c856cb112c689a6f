package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/commute-matching/internal/directory"
	"github.com/example/commute-matching/internal/eta"
	"github.com/example/commute-matching/internal/geo"
	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/storage"
	"github.com/example/commute-matching/internal/zone"
)

type fixedGeocoder struct {
	p   geo.Point
	err error
}

func (f fixedGeocoder) Geocode(context.Context, string) (geo.Point, error) { return f.p, f.err }

type recordingDispatcher struct {
	sent []models.Notification
	err  error
}

func (r *recordingDispatcher) Notify(_ context.Context, n models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

type brokenDirectory struct{}

func (brokenDirectory) ListAvailable(context.Context) ([]models.DriverCandidate, error) {
	return nil, errors.New("connection refused")
}

type listOnly struct{ Directory }

func newTestService(t *testing.T, drivers ...models.DriverCandidate) (*Service, *storage.MemoryStore, *recordingDispatcher) {
	t.Helper()
	est, err := eta.NewEstimator(eta.DefaultConfig(), nil)
	require.NoError(t, err)
	store := storage.NewMemoryStore()
	disp := &recordingDispatcher{}
	zones := zone.NewClassifier(zone.DefaultTable())
	office := est.Office()

	s := NewService(directory.NewMemory(drivers...), fixedGeocoder{p: office}, store, zones, est, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Dispatch = disp
	s.Clock = ClockFunc(func() time.Time { return time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC) })
	n := 0
	s.NewID = func() string { n++; return fmt.Sprintf("asg-%d", n) }
	return s, store, disp
}

var fleet = []models.DriverCandidate{
	{ID: "d1", Name: "Ravi", Phone: "9800000001", ServiceArea: "Electronic City", Available: true},
	{ID: "d2", Name: "Suresh", Phone: "9800000002", ServiceArea: "Yelahanka", Available: true},
	{ID: "d3", Name: "Manju", Phone: "9800000003", ServiceArea: "Whitefield", Available: false},
	{ID: "d4", Name: "Kiran", Phone: "9800000004", ServiceArea: "Kengeri", Available: true},
}

func TestSearchEndToEnd(t *testing.T) {
	s, _, _ := newTestService(t, fleet...)
	got, err := s.Search(context.Background(), "Yelahanka")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "d2", got[0].DriverID)
	assert.InDelta(t, ExactScore, got[0].Score, 1e-9)
	assert.Equal(t, zone.East, got[0].Zone)
	assert.Equal(t, "d1", got[1].DriverID)
	assert.Equal(t, "d4", got[2].DriverID)
}

func TestSearchWithoutDrivers(t *testing.T) {
	s, _, _ := newTestService(t)
	got, err := s.Search(context.Background(), "Whitefield")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchDirectoryError(t *testing.T) {
	s, _, _ := newTestService(t)
	s.Directory = brokenDirectory{}
	_, err := s.Search(context.Background(), "Whitefield")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Service.Search")
}

func TestRecommend(t *testing.T) {
	s, _, _ := newTestService(t, fleet...)
	s.TopN = 2
	rec, err := s.Recommend(context.Background(), "Chickpet")
	require.NoError(t, err)
	assert.Equal(t, zone.NonHiring, rec.EmployeeZone)
	assert.True(t, rec.Restricted)
	assert.Equal(t, 3, rec.TotalAvailable)
	require.Len(t, rec.Drivers, 2)
	// nobody serves Non_Hiring, so everyone scores 15 and keeps directory order
	assert.Equal(t, "d1", rec.Drivers[0].Driver.ID)
	assert.Equal(t, "d2", rec.Drivers[1].Driver.ID)

	rec, err = s.Recommend(context.Background(), "Kengeri Satellite Town")
	require.NoError(t, err)
	assert.False(t, rec.Restricted)
	assert.Equal(t, "d4", rec.Drivers[0].Driver.ID)
	assert.Equal(t, 20, rec.Drivers[0].Points)
}

func TestPlanTrip(t *testing.T) {
	s, _, _ := newTestService(t)
	got, err := s.PlanTrip(context.Background(), "ITPL Whitefield", "09:00")
	require.NoError(t, err)
	assert.Equal(t, "ITPL Whitefield", got.PickupLocation)
	assert.Equal(t, zone.East, got.Zone)
	assert.Equal(t, 30, got.TravelMinutes)
	assert.Equal(t, "08:15", got.PickupTime)
	assert.Equal(t, "08:45", got.ETAAtPickup)
	assert.Equal(t, "sociable", got.ShiftWindow)

	_, err = s.PlanTrip(context.Background(), "ITPL", "9 o'clock")
	assert.ErrorIs(t, err, eta.ErrInvalidClock)

	s.Geocoder = fixedGeocoder{err: errors.New("quota exceeded")}
	_, err = s.PlanTrip(context.Background(), "ITPL", "09:00")
	assert.Error(t, err)
}

func TestAssignLocationBased(t *testing.T) {
	s, store, disp := newTestService(t, fleet...)
	a, err := s.Assign(context.Background(), models.AssignmentRequest{
		EmployeeID:       "emp-7",
		EmployeeLocation: "Yelahanka New Town",
		ShiftTime:        "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "asg-1", a.ID)
	assert.Equal(t, "d2", a.DriverID)
	assert.Equal(t, models.ReasonLocationBased, a.Reason)
	assert.Equal(t, models.TripPickup, a.TripType)
	assert.InDelta(t, SubstringScore, a.MatchScore, 1e-9)
	assert.Equal(t, "08:15", a.ETA.PickupTime)
	assert.Equal(t, "notified", a.Status)

	stored, err := store.GetAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	assert.Equal(t, "notified", stored.Status)

	require.Len(t, disp.sent, 1)
	assert.Equal(t, "d2", disp.sent[0].DriverID)
	assert.Equal(t, "asg-1", disp.sent[0].AssignmentID)
	assert.Equal(t, "08:15", disp.sent[0].PickupTime)
}

func TestAssignFallsBackToFirstAvailable(t *testing.T) {
	s, _, _ := newTestService(t, fleet...)
	a, err := s.Assign(context.Background(), models.AssignmentRequest{
		EmployeeID:       "emp-8",
		EmployeeLocation: "Koramangala",
		ShiftTime:        "22:00",
		TripType:         models.TripDrop,
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", a.DriverID)
	assert.Equal(t, models.ReasonFallback, a.Reason)
	assert.Equal(t, "22:20", a.DropTime)
}

func TestAssignDropHasNoPickupPlan(t *testing.T) {
	s, _, disp := newTestService(t, fleet...)
	a, err := s.Assign(context.Background(), models.AssignmentRequest{
		EmployeeID:       "emp-8",
		EmployeeLocation: "Yelahanka",
		ShiftTime:        "18:00",
		TripType:         models.TripDrop,
	})
	require.NoError(t, err)
	assert.Equal(t, "18:20", a.DropTime)
	assert.Empty(t, a.ETA.PickupTime)
	assert.Empty(t, a.ETA.ETAAtPickup)
	assert.Equal(t, 30, a.ETA.TravelMinutes)
	assert.Equal(t, "Yelahanka", a.ETA.PickupLocation)

	require.Len(t, disp.sent, 1)
	assert.Equal(t, "drop_assignment", disp.sent[0].Type)
	assert.Equal(t, "18:20", disp.sent[0].PickupTime)
}

func TestAssignManual(t *testing.T) {
	s, _, _ := newTestService(t, fleet...)
	a, err := s.Assign(context.Background(), models.AssignmentRequest{
		EmployeeID:       "emp-9",
		EmployeeLocation: "Yelahanka",
		ShiftTime:        "09:00",
		DriverID:         "d4",
	})
	require.NoError(t, err)
	assert.Equal(t, "d4", a.DriverID)
	assert.Equal(t, models.ReasonManual, a.Reason)

	_, err = s.Assign(context.Background(), models.AssignmentRequest{
		EmployeeID:       "emp-9",
		EmployeeLocation: "Yelahanka",
		ShiftTime:        "09:00",
		DriverID:         "d3",
	})
	assert.ErrorIs(t, err, ErrDriverUnavailable)
	assert.ErrorContains(t, err, "off duty")
}

func TestAssignManualExplainsRejection(t *testing.T) {
	drivers := append([]models.DriverCandidate{{ID: "d5", Name: "Latha", Available: true}}, fleet...)
	s, store, _ := newTestService(t, drivers...)
	req := models.AssignmentRequest{EmployeeID: "emp-9", EmployeeLocation: "Yelahanka", ShiftTime: "09:00"}

	req.DriverID = "d5"
	_, err := s.Assign(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoServiceArea)
	assert.NotErrorIs(t, err, ErrDriverUnavailable)

	req.DriverID = "d99"
	_, err = s.Assign(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnknownDriver)

	// directories without lookup keep the generic error
	s.Directory = listOnly{s.Directory}
	req.DriverID = "d5"
	_, err = s.Assign(context.Background(), req)
	assert.ErrorIs(t, err, ErrDriverUnavailable)

	_, err = store.GetAssignment(context.Background(), "asg-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAssignErrors(t *testing.T) {
	s, store, _ := newTestService(t)
	_, err := s.Assign(context.Background(), models.AssignmentRequest{EmployeeID: "e", EmployeeLocation: "Whitefield", ShiftTime: "09:00"})
	assert.ErrorIs(t, err, ErrNoDrivers)

	_, err = s.Assign(context.Background(), models.AssignmentRequest{EmployeeID: "e"})
	assert.ErrorIs(t, err, models.ErrInvalid)

	_, err = s.Assign(context.Background(), models.AssignmentRequest{EmployeeID: "e", EmployeeLocation: "x", ShiftTime: "09:00", TripType: "teleport"})
	assert.ErrorIs(t, err, models.ErrInvalid)

	_, err = store.GetAssignment(context.Background(), "asg-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAssignSurvivesNotificationFailure(t *testing.T) {
	s, store, disp := newTestService(t, fleet...)
	disp.err = errors.New("webhook down")
	a, err := s.Assign(context.Background(), models.AssignmentRequest{EmployeeID: "e", EmployeeLocation: "Kengeri", ShiftTime: "10:30"})
	require.NoError(t, err)
	assert.Equal(t, "assigned", a.Status)
	stored, err := store.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "assigned", stored.Status)
	assert.Equal(t, "d4", stored.DriverID)
}
