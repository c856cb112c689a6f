package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/commute-matching/internal/eta"
	"github.com/example/commute-matching/internal/geo"
	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/observability"
	"github.com/example/commute-matching/internal/storage"
	"github.com/example/commute-matching/internal/zone"
)

var (
	ErrNoDrivers         = errors.New("no drivers available")
	ErrDriverUnavailable = errors.New("driver is not available")
	ErrNoServiceArea     = errors.New("driver has no service area")
	ErrUnknownDriver     = errors.New("driver not found")
)

type Directory interface {
	ListAvailable(ctx context.Context) ([]models.DriverCandidate, error)
}

// DriverLookup is implemented by directories that can fetch one driver
// whatever its availability. The service uses it to explain why a manually
// chosen driver was rejected.
type DriverLookup interface {
	Lookup(ctx context.Context, id string) (d models.DriverCandidate, found bool, err error)
}

type Geocoder interface {
	Geocode(ctx context.Context, location string) (geo.Point, error)
}

type Dispatcher interface {
	Notify(ctx context.Context, n models.Notification) error
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

const defaultTopN = 10

type Service struct {
	Directory Directory
	Geocoder  Geocoder
	Dispatch  Dispatcher // optional
	Store     storage.AssignmentStore
	Zones     *zone.Classifier
	Locations *LocationMatcher
	Ranker    *Ranker
	ETA       *eta.Estimator
	Clock     Clock
	Logger    *slog.Logger
	TopN      int
	NewID     func() string
}

// NewService wires a Service with the system clock, uuid identifiers and
// matchers built from zones.
func NewService(dir Directory, gc Geocoder, store storage.AssignmentStore, zones *zone.Classifier, est *eta.Estimator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Directory: dir,
		Geocoder:  gc,
		Store:     store,
		Zones:     zones,
		Locations: NewLocationMatcher(zones),
		Ranker:    NewRanker(zones),
		ETA:       est,
		Clock:     ClockFunc(time.Now),
		Logger:    logger,
		TopN:      defaultTopN,
		NewID:     uuid.NewString,
	}
}

func (s *Service) available(ctx context.Context) ([]models.DriverCandidate, error) {
	const op = "Service.available"
	start := time.Now()
	drivers, err := s.Directory.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	observability.DirectoryLatency.Observe(time.Since(start).Seconds())
	observability.DriversAvailable.Set(float64(len(drivers)))
	return drivers, nil
}

// Search returns every available driver ranked by service area match, best first.
func (s *Service) Search(ctx context.Context, location string) ([]models.MatchResult, error) {
	const op = "Service.Search"
	drivers, err := s.available(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	observability.SearchesTotal.Inc()
	return s.Locations.Rank(location, drivers), nil
}

// Recommend ranks available drivers by zone and time of day and keeps the top N.
func (s *Service) Recommend(ctx context.Context, location string) (models.Recommendation, error) {
	const op = "Service.Recommend"
	drivers, err := s.available(ctx)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("%s: %w", op, err)
	}
	ranked := s.Ranker.Rank(location, drivers, s.Clock.Now().Hour())
	if n := s.topN(); len(ranked) > n {
		ranked = ranked[:n]
	}
	employeeZone := s.Zones.Classify(location)
	return models.Recommendation{
		EmployeeZone:   employeeZone,
		Restricted:     s.Zones.Table().Restricted(employeeZone),
		Drivers:        ranked,
		TotalAvailable: len(drivers),
	}, nil
}

// PlanTrip geocodes the pickup location and plans travel for the shift.
func (s *Service) PlanTrip(ctx context.Context, pickupLocation, shift string) (models.ETAEstimate, error) {
	const op = "Service.PlanTrip"
	p, err := s.Geocoder.Geocode(ctx, pickupLocation)
	if err != nil {
		return models.ETAEstimate{}, fmt.Errorf("%s: geocode: %w", op, err)
	}
	est, err := s.ETA.Plan(p, shift, s.Clock.Now())
	if err != nil {
		return models.ETAEstimate{}, fmt.Errorf("%s: %w", op, err)
	}
	est.PickupLocation = pickupLocation
	est.Zone = s.Zones.Classify(pickupLocation)
	return est, nil
}

// Assign picks a driver for an employee commute, persists the assignment
// and notifies the driver. Notification failures do not fail the assignment.
func (s *Service) Assign(ctx context.Context, req models.AssignmentRequest) (models.Assignment, error) {
	const op = "Service.Assign"
	if err := models.Validate(req); err != nil {
		return models.Assignment{}, err
	}
	if req.TripType == "" {
		req.TripType = models.TripPickup
	}

	drivers, err := s.available(ctx)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("%s: %w", op, err)
	}
	chosen, reason, score, err := s.choose(ctx, req, drivers)
	if err != nil {
		return models.Assignment{}, err
	}

	plan, err := s.PlanTrip(ctx, req.EmployeeLocation, req.ShiftTime)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("%s: %w", op, err)
	}
	var dropTime string
	if req.TripType == models.TripDrop {
		if dropTime, err = s.ETA.DropOff(req.ShiftTime); err != nil {
			return models.Assignment{}, fmt.Errorf("%s: %w", op, err)
		}
		// a drop leaves the office at DropTime, there is no pickup to plan
		plan.PickupTime, plan.ETAAtPickup = "", ""
	}

	now := s.Clock.Now()
	a := models.Assignment{
		ID:               s.NewID(),
		EmployeeID:       req.EmployeeID,
		EmployeeLocation: req.EmployeeLocation,
		DriverID:         chosen.ID,
		DriverName:       chosen.Name,
		ServiceArea:      chosen.ServiceArea,
		TripType:         req.TripType,
		Reason:           reason,
		MatchScore:       score,
		ETA:              plan,
		DropTime:         dropTime,
		Status:           "assigned",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Store.SaveAssignment(ctx, &a); err != nil {
		return models.Assignment{}, fmt.Errorf("%s: save: %w", op, err)
	}
	observability.AssignmentsTotal.WithLabelValues(string(reason)).Inc()

	s.notify(ctx, &a)
	return a, nil
}

func (s *Service) choose(ctx context.Context, req models.AssignmentRequest, drivers []models.DriverCandidate) (models.DriverCandidate, models.AssignmentReason, float64, error) {
	if id := strings.TrimSpace(req.DriverID); id != "" {
		for _, d := range drivers {
			if d.ID == id {
				return d, models.ReasonManual, ScoreLocation(req.EmployeeLocation, d.ServiceArea), nil
			}
		}
		return models.DriverCandidate{}, "", 0, s.rejectManual(ctx, id)
	}
	if len(drivers) == 0 {
		return models.DriverCandidate{}, "", 0, ErrNoDrivers
	}

	ranked := s.Locations.Rank(req.EmployeeLocation, drivers)
	if len(ranked) == 0 || ranked[0].Score >= NoOverlapScore {
		// nobody covers the location, take the first driver on duty
		d := drivers[0]
		return d, models.ReasonFallback, ScoreLocation(req.EmployeeLocation, d.ServiceArea), nil
	}
	best := ranked[0]
	for _, d := range drivers {
		if d.ID == best.DriverID {
			return d, models.ReasonLocationBased, best.Score, nil
		}
	}
	return models.DriverCandidate{}, "", 0, ErrNoDrivers
}

// rejectManual says why a requested driver is missing from the available list.
func (s *Service) rejectManual(ctx context.Context, id string) error {
	const op = "Service.rejectManual"
	l, ok := s.Directory.(DriverLookup)
	if !ok {
		return fmt.Errorf("driver %s: %w", id, ErrDriverUnavailable)
	}
	d, found, err := l.Lookup(ctx, id)
	switch {
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	case !found:
		return fmt.Errorf("driver %s: %w", id, ErrUnknownDriver)
	case !d.Available:
		return fmt.Errorf("driver %s is off duty: %w", id, ErrDriverUnavailable)
	default:
		return fmt.Errorf("driver %s: %w", id, ErrNoServiceArea)
	}
}

func (s *Service) notify(ctx context.Context, a *models.Assignment) {
	if s.Dispatch == nil {
		return
	}
	n := models.Notification{
		Type:         "assignment",
		AssignmentID: a.ID,
		DriverID:     a.DriverID,
		EmployeeID:   a.EmployeeID,
		Pickup:       a.EmployeeLocation,
		PickupTime:   a.ETA.PickupTime,
		Message:      fmt.Sprintf("Pick up employee %s at %s by %s", a.EmployeeID, a.EmployeeLocation, a.ETA.PickupTime),
		SentAt:       s.Clock.Now(),
	}
	if a.TripType == models.TripDrop {
		n.Type = "drop_assignment"
		n.PickupTime = a.DropTime
		n.Message = fmt.Sprintf("Drop employee %s at %s, leave office by %s", a.EmployeeID, a.EmployeeLocation, a.DropTime)
	}
	if err := s.Dispatch.Notify(ctx, n); err != nil {
		s.Logger.WarnContext(ctx, "driver notification failed", "assignment_id", a.ID, "driver_id", a.DriverID, "error", err)
		return
	}
	a.Status = "notified"
	a.UpdatedAt = s.Clock.Now()
	if err := s.Store.UpdateAssignment(ctx, a); err != nil {
		s.Logger.WarnContext(ctx, "failed to mark assignment notified", "assignment_id", a.ID, "error", err)
	}
}

// Get returns a stored assignment.
func (s *Service) Get(ctx context.Context, id string) (models.Assignment, error) {
	a, err := s.Store.GetAssignment(ctx, id)
	if err != nil {
		return models.Assignment{}, err
	}
	return *a, nil
}

func (s *Service) topN() int {
	if s.TopN <= 0 {
		return defaultTopN
	}
	return s.TopN
}
