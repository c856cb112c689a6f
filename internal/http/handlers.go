package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/commute-matching/internal/eta"
	"github.com/example/commute-matching/internal/geocode"
	"github.com/example/commute-matching/internal/matcher"
	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/storage"
)

type locationRequest struct {
	EmployeeLocation string `json:"employee_location" validate:"required"`
}

type etaRequest struct {
	PickupLocation string `json:"pickup_location" validate:"required"`
	ShiftTime      string `json:"shift_time" validate:"required"`
}

type availabilityRequest struct {
	Available   *bool  `json:"available" validate:"required"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone_number,omitempty"`
	ServiceArea string `json:"service_area,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.matcher.Search(r.Context(), req.EmployeeLocation)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.matcher.Recommend(r.Context(), req.EmployeeLocation)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req models.AssignmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, err := s.matcher.Assign(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	args := []any{"assignment_id", a.ID, "driver_id", a.DriverID, "reason", a.Reason}
	if c := claimsFromContext(r.Context()); c != nil {
		args = append(args, "assigned_by", c.Subject)
	}
	s.logger.InfoContext(r.Context(), "driver assigned", args...)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := s.matcher.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleETA(w http.ResponseWriter, r *http.Request) {
	var req etaRequest
	if !s.decode(w, r, &req) {
		return
	}
	est, err := s.matcher.PlanTrip(r.Context(), req.PickupLocation, req.ShiftTime)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"zones": s.zones.Table().Zones()})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	loc := r.URL.Query().Get("location")
	z := s.zones.Classify(loc)
	writeJSON(w, http.StatusOK, map[string]any{
		"location":   loc,
		"zone":       z,
		"restricted": s.zones.Table().Restricted(z),
	})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if !s.decode(w, r, &req) {
		return
	}
	st := models.DriverStatus{
		DriverID:    mux.Vars(r)["driver_id"],
		Name:        strings.TrimSpace(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		ServiceArea: strings.TrimSpace(req.ServiceArea),
		Available:   *req.Available,
		Updated:     time.Now().UTC(),
	}

	var err error
	if s.publisher != nil {
		err = s.publisher.PublishStatus(r.Context(), st)
	} else {
		err = s.directory.ApplyStatus(r.Context(), st)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["driver_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		return
	}
	s.wsreg.Add(id, conn)
	s.logger.Info("driver connected", "driver_id", id)

	go func() {
		defer func() {
			s.wsreg.Remove(id, conn)
			_ = conn.Close()
			s.logger.Info("driver disconnected", "driver_id", id)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := models.Validate(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalid), errors.Is(err, eta.ErrInvalidClock):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, matcher.ErrUnknownDriver):
		return http.StatusNotFound
	case errors.Is(err, matcher.ErrDriverUnavailable), errors.Is(err, matcher.ErrNoServiceArea):
		return http.StatusConflict
	case errors.Is(err, geocode.ErrNoResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, matcher.ErrNoDrivers):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
