package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// queryInt returns the integer query parameter name, or def when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) handleDeliveryList(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.history.ListDeliveries(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list deliveries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.history.CountDeliveries(r.Context())
	if err != nil {
		s.logger.Error("count deliveries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"deliveries": list,
		"total":      total,
		"offset":     offset,
		"limit":      limit,
	}
	if sized, ok := s.history.(interface{ SizeBytes() (int64, error) }); ok {
		if n, err := sized.SizeBytes(); err == nil {
			resp["database_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeliveryGet(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	runID := chi.URLParam(r, "runID")
	d, err := s.history.GetDelivery(r.Context(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	segs, err := s.history.GetSegments(r.Context(), runID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"delivery": d, "segments": segs})
}
