package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/commute-matching/internal/geo"
	"github.com/example/commute-matching/internal/zone"
)

var validate = validator.New()

// Validate runs struct tag validation on v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

var ErrInvalid = errors.New("invalid input")

// DriverCandidate is the read-only projection of a driver profile used for matching.
type DriverCandidate struct {
	ID          string `json:"driver_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone_number" validate:"omitempty,min=7,max=20"`
	ServiceArea string `json:"service_area"`
	Available   bool   `json:"is_available"`
}

func NewDriverCandidate(id, name, phone, serviceArea string, available bool) (DriverCandidate, error) {
	d := DriverCandidate{
		ID:          strings.TrimSpace(id),
		Name:        strings.TrimSpace(name),
		Phone:       strings.TrimSpace(phone),
		ServiceArea: strings.TrimSpace(serviceArea),
		Available:   available,
	}
	if err := Validate(d); err != nil {
		return DriverCandidate{}, err
	}
	return d, nil
}

// Matchable reports whether the candidate can be scored by the location matcher.
func (d DriverCandidate) Matchable() bool {
	return d.Available && strings.TrimSpace(d.ServiceArea) != ""
}

// MatchResult is one entry of a location search. Score is distance-like:
// lower is better.
type MatchResult struct {
	DriverID    string    `json:"driver_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone_number,omitempty"`
	ServiceArea string    `json:"service_area"`
	Score       float64   `json:"score"`
	Zone        zone.Name `json:"zone"`
}

// ScoredCandidate is one entry of the composite zone/time ranking. Points
// is higher-is-better and must not be compared with MatchResult.Score.
type ScoredCandidate struct {
	Driver    DriverCandidate `json:"driver"`
	Zone      zone.Name       `json:"zone"`
	ZoneMatch bool            `json:"zone_match"`
	Points    int             `json:"points"`
}

type Recommendation struct {
	EmployeeZone   zone.Name         `json:"employee_zone"`
	Restricted     bool              `json:"restricted"`
	Drivers        []ScoredCandidate `json:"recommended_drivers"`
	TotalAvailable int               `json:"total_available"`
}

// ETAEstimate is the travel plan for one pickup.
type ETAEstimate struct {
	PickupLocation   string    `json:"pickup_location,omitempty"`
	Pickup           geo.Point `json:"pickup"`
	Zone             zone.Name `json:"zone,omitempty"`
	DistanceKm       float64   `json:"distance_km"`
	Bracket          string    `json:"bracket"`
	TimeRange        string    `json:"time_range"`
	TrafficFactor    float64   `json:"traffic_factor"`
	TravelMinutes    int       `json:"estimated_time_minutes"`
	ShiftTime        string    `json:"shift_time"`
	// PickupTime and ETAAtPickup are empty on drop assignments, which
	// carry their departure in Assignment.DropTime.
	PickupTime       string    `json:"pickup_time,omitempty"`
	ETAAtPickup      string    `json:"eta_at_pickup,omitempty"`
	TrafficCondition string    `json:"traffic_condition"`
	ShiftWindow      string    `json:"shift_window"`
}

type TripType string

const (
	TripPickup TripType = "pickup"
	TripDrop   TripType = "drop"
)

// AssignmentRequest asks for a driver for one employee commute. DriverID
// is optional; when empty the best location match is used.
type AssignmentRequest struct {
	EmployeeID       string   `json:"employee_id" validate:"required"`
	EmployeeLocation string   `json:"employee_location" validate:"required"`
	ShiftTime        string   `json:"shift_time" validate:"required"`
	TripType         TripType `json:"trip_type" validate:"omitempty,oneof=pickup drop"`
	DriverID         string   `json:"driver_id,omitempty"`
}

type AssignmentReason string

const (
	ReasonManual        AssignmentReason = "manual"
	ReasonLocationBased AssignmentReason = "location_based"
	ReasonFallback      AssignmentReason = "any_available"
)

type Assignment struct {
	ID               string           `json:"id"`
	EmployeeID       string           `json:"employee_id"`
	EmployeeLocation string           `json:"employee_location"`
	DriverID         string           `json:"driver_id"`
	DriverName       string           `json:"driver_name"`
	ServiceArea      string           `json:"service_area"`
	TripType         TripType         `json:"trip_type"`
	Reason           AssignmentReason `json:"assignment_reason"`
	MatchScore       float64          `json:"match_score"`
	ETA              ETAEstimate      `json:"eta"`
	DropTime         string           `json:"drop_time,omitempty"`
	Status           string           `json:"status"` // assigned, notified, canceled
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// DriverStatus is an availability update published by drivers.
type DriverStatus struct {
	DriverID    string    `json:"driver_id" validate:"required"`
	Name        string    `json:"name,omitempty"`
	Phone       string    `json:"phone_number,omitempty"`
	ServiceArea string    `json:"service_area,omitempty"`
	Available   bool      `json:"is_available"`
	Updated     time.Time `json:"updated"`
}

// Notification is what drivers and the notification service receive
// when an assignment is made.
type Notification struct {
	Type         string    `json:"type"`
	AssignmentID string    `json:"assignment_id"`
	DriverID     string    `json:"driver_id"`
	EmployeeID   string    `json:"employee_id"`
	Pickup       string    `json:"pickup_location"`
	PickupTime   string    `json:"pickup_time"`
	Message      string    `json:"message"`
	SentAt       time.Time `json:"sent_at"`
}
