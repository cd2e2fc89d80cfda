package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tourbook/internal/calendar"
	"tourbook/internal/export"
	"tourbook/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := s.svc.Reservations.List(r.Context(), vars["userID"], vars["postID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleReservationsExport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := s.svc.Reservations.List(r.Context(), vars["userID"], vars["postID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := export.ReservationsWorkbook(view)
	if err != nil {
		s.log.Error().Err(err).Str("post_id", vars["postID"]).Msg("failed to build workbook")
		writeError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.ReservationsFileName(vars["postID"])+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) handlePayment(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Payments.Receipt(r.Context(), mux.Vars(r)["paymentID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleMap(w http.ResponseWriter, r *http.Request) {
	day := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("day")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be a number")
			return
		}
		day = n
	}

	view, err := s.svc.Maps.View(r.Context(), mux.Vars(r)["postID"], day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleGetLike(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postID"]
	liked, err := s.svc.Likes.IsLiked(r.Context(), postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post_id": postID, "liked": liked})
}

func (s *HTTPServer) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postID"]
	liked, err := s.svc.Likes.Toggle(r.Context(), postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post_id": postID, "liked": liked})
}

func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	var pivot calendar.Date
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		m, err := calendar.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pivot = m
	}

	sessionID := s.session(w, r)
	view, err := s.svc.Selection.Month(r.Context(), sessionID, pivot)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date calendar.Date `json:"date"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body; expected {\"date\":\"YYYY-MM-DD\"}")
		return
	}

	sessionID := s.session(w, r)
	view, err := s.svc.Selection.Click(r.Context(), sessionID, body.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleResetSelection(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "X-Session-ID header is required")
		return
	}
	if err := s.svc.Selection.Reset(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session returns the caller's calendar session, starting a new one when
// the header is absent. The id is echoed back either way.
func (s *HTTPServer) session(w http.ResponseWriter, r *http.Request) string {
	sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(sessionIDHeader, sessionID)
	return sessionID
}

// writeServiceError maps service errors to status codes. Backend details
// never reach the client; a failed view shows its fixed message.
func writeServiceError(w http.ResponseWriter, err error) {
	var viewErr *service.ViewError
	switch {
	case errors.As(err, &viewErr):
		writeError(w, http.StatusBadGateway, viewErr.Message)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
