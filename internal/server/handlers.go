package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/config"
	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/relay"
	"github.com/hyperjump/kugiri/internal/segment"
)

// sourceAPI is the history source of deliveries streamed over HTTP.
const sourceAPI = "api"

// maxBodyBytes bounds request bodies; documents are far smaller.
const maxBodyBytes = 4 << 20

func (s *Server) decodeSegmentRequest(w http.ResponseWriter, r *http.Request) (*models.SegmentRequest, bool) {
	var req models.SegmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (s *Server) prepare(w http.ResponseWriter, req *models.SegmentRequest) (*relay.Prepared, segment.Config, bool) {
	cfg := req.Segmentation.Apply(s.relay.SegmentConfig())
	p, err := s.relay.Prepare(req.Content, cfg)
	if err != nil {
		if errors.Is(err, segment.ErrEmptyDocument) || errors.Is(err, segment.ErrInvalidConfig) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return nil, cfg, false
		}
		s.logger.Error("segmentation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, cfg, false
	}
	return p, cfg, true
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := s.decodeSegmentRequest(w, r)
	if !ok {
		return
	}
	p, cfg, ok := s.prepare(w, req)
	if !ok {
		return
	}
	algorithm := string(cfg.Algorithm)
	if algorithm == "" {
		algorithm = string(segment.AlgorithmSmart)
	}
	s.logger.Debug("segment request", zap.Int("characters", p.Characters), zap.Int("segments", len(p.Segments)))
	s.respondJSON(w, http.StatusOK, &models.SegmentResponse{
		Segments:   p.Segments,
		Count:      len(p.Segments),
		Characters: p.Characters,
		Algorithm:  algorithm,
		Truncated:  p.Truncated,
		QueryTime:  time.Since(start).Milliseconds(),
	})
}

// handleDeliver streams a paced delivery as NDJSON events. A client disconnect cancels the run.
func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSegmentRequest(w, r)
	if !ok {
		return
	}
	opts, err := req.Delivery.Apply(s.delivery)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, _, ok := s.prepare(w, req)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	emit := func(ev models.DeliveryEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	sender := dispatch.SenderFunc(func(_ context.Context, a dispatch.Action) error {
		return emit(models.DeliveryEvent{Type: models.EventAction, Action: &a})
	})
	sched := dispatch.NewScheduler(opts, append([]dispatch.SchedulerOption{dispatch.WithLogger(s.logger)}, s.schedOpts...)...)
	started := time.Now()
	report, err := sched.Schedule(r.Context(), p.Segments, sender)
	s.relay.Record(r.Context(), &models.Delivery{Source: sourceAPI, StartedAt: started}, p, report, err)
	if err != nil {
		if r.Context().Err() != nil {
			s.logger.Info("delivery stream closed by client", zap.String("run_id", report.RunID), zap.Int("delivered", report.Delivered))
			return
		}
		_ = emit(models.DeliveryEvent{Type: models.EventError, Report: &report, Error: err.Error()})
		return
	}
	_ = emit(models.DeliveryEvent{Type: models.EventDone, Report: &report})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.configMu.Lock()
	resp := map[string]interface{}{
		"segmentation": s.config.Segmentation,
		"delivery":     s.config.Delivery,
	}
	s.configMu.Unlock()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInboxList(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.inbox.Directories()})
}

type inboxAddRequest struct {
	models.DirectoryRequest
	Sync *bool `json:"sync,omitempty"`
}

func (s *Server) handleInboxAdd(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not enabled")
		return
	}
	var req inboxAddRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	// Documents already in a new inbox are not delivered unless asked for.
	syncExisting := req.Sync != nil && *req.Sync
	s.logger.Debug("inbox add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.inbox.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("inbox add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistInbox()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleInboxRemove(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body models.DirectoryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("inbox remove directory request", zap.String("path", abs))
	if err := s.inbox.RemoveDirectory(abs); err != nil {
		s.logger.Error("inbox remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistInbox()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistInbox writes the current inbox directories back to the config file, if any.
func (s *Server) persistInbox() {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Inbox.Directories = s.inbox.Directories()
	if s.configPath == "" {
		return
	}
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist inbox config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
