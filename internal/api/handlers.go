package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lab007/webalert/internal/common"
	"github.com/lab007/webalert/internal/models"

	"github.com/go-chi/chi/v5"
)

type monitorRequest struct {
	URL                    string `json:"url"`
	Email                  string `json:"email"`
	PhoneNumber            string `json:"phone_number,omitempty"`
	Carrier                string `json:"carrier,omitempty"`
	PollingDurationMinutes int    `json:"polling_duration_minutes"`
}

type monitorResponse struct {
	URLID        int64  `json:"url_id"`
	SubscriberID int64  `json:"subscriber_id"`
	Message      string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) startMonitoring(w http.ResponseWriter, r *http.Request) {
	var req monitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	urlID, subscriberID, err := s.monitor.StartMonitoring(r.Context(), req.URL, models.NewSubscription{
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Carrier:         req.Carrier,
		PollingDuration: time.Duration(req.PollingDurationMinutes) * time.Minute,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, monitorResponse{
		URLID:        urlID,
		SubscriberID: subscriberID,
		Message:      "monitoring started",
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.monitor.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if statuses == nil {
		statuses = []models.URLStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) getSubscriber(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	sub, err := s.monitor.GetSubscriber(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) stopSubscriber(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.monitor.StopSubscriber(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "alerts stopped"})
}

func (s *Server) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.monitor.StopMonitoring(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "monitoring stopped"})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validationErr *common.ValidationError
	var configErr *common.ConfigurationError

	switch {
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &validationErr), errors.As(err, &configErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
