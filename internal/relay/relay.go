// Package relay turns documents into paced deliveries: extract, guard length, segment, schedule.
package relay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/extract"
	"github.com/hyperjump/kugiri/internal/fileid"
	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/segment"
	"github.com/hyperjump/kugiri/internal/storage"
	"github.com/hyperjump/kugiri/pkg/utils"
)

// ErrUnchanged is returned by DeliverFile when the file's text was already delivered.
var ErrUnchanged = errors.New("document unchanged since last delivery")

// Limits bounds the length of a document in characters. Zero disables a bound.
type Limits struct {
	MinTotalLength int
	MaxTotalLength int
}

// Prepared is a document after the length guard and segmentation.
type Prepared struct {
	Text       string
	Characters int
	Truncated  bool
	Segments   []segment.Segment
}

// Relay segments documents and delivers them through a scheduler to one sender.
// Deliveries are serialised so the segments of two documents never interleave.
type Relay struct {
	segCfg    segment.Config
	limits    Limits
	scheduler *dispatch.Scheduler
	sender    dispatch.Sender
	extractor *extract.Extractor
	history   storage.Storage
	logger    *zap.Logger

	runMu  sync.Mutex
	seenMu sync.Mutex
	seen   map[string]string // doc ID -> fingerprint of the last delivered text
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets a logger for delivery events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) { r.logger = utils.OrNop(l) }
}

// WithLimits sets the document length bounds.
func WithLimits(l Limits) Option {
	return func(r *Relay) { r.limits = l }
}

// WithHistory records every run in h and keeps file fingerprints there across restarts.
func WithHistory(h storage.Storage) Option {
	return func(r *Relay) { r.history = h }
}

// New creates a relay that splits with segCfg and delivers via scheduler to sender.
func New(segCfg segment.Config, scheduler *dispatch.Scheduler, sender dispatch.Sender, opts ...Option) *Relay {
	r := &Relay{
		segCfg:    segCfg,
		scheduler: scheduler,
		sender:    sender,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
		seen:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SegmentConfig returns the segmentation settings of the relay.
func (r *Relay) SegmentConfig() segment.Config {
	return r.segCfg
}

// Prepare applies the length guard to text and splits it with cfg.
// A document over MaxTotalLength is cut to that many characters and "..." is appended.
// A document under MinTotalLength is only logged.
func (r *Relay) Prepare(text string, cfg segment.Config) (*Prepared, error) {
	text = strings.TrimSpace(text)
	p := &Prepared{Text: text, Characters: utils.RuneLen(text)}
	if cut, ok := utils.TruncateRunes(text, r.limits.MaxTotalLength); ok {
		p.Text = strings.TrimSpace(cut) + "..."
		p.Truncated = true
		r.logger.Warn("document exceeds max_total_length, truncating",
			zap.Int("characters", p.Characters), zap.Int("max_total_length", r.limits.MaxTotalLength))
	} else if r.limits.MinTotalLength > 0 && p.Characters > 0 && p.Characters < r.limits.MinTotalLength {
		r.logger.Info("document shorter than min_total_length",
			zap.Int("characters", p.Characters), zap.Int("min_total_length", r.limits.MinTotalLength))
	}
	segs, err := segment.Split(p.Text, cfg)
	if err != nil {
		return nil, err
	}
	p.Segments = segs
	return p, nil
}

// DeliverText segments text with the relay's config and delivers it.
func (r *Relay) DeliverText(ctx context.Context, text string) (dispatch.Report, error) {
	p, err := r.Prepare(text, r.segCfg)
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("segment document: %w", err)
	}
	return r.deliver(ctx, &models.Delivery{Source: SourceText}, p)
}

// SourceText is the history source of documents delivered from memory rather than a file.
const SourceText = "text"

func (r *Relay) deliver(ctx context.Context, rec *models.Delivery, p *Prepared) (dispatch.Report, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	started := time.Now()
	report, err := r.scheduler.Schedule(ctx, p.Segments, r.sender)
	rec.StartedAt = started
	r.Record(ctx, rec, p, report, err)
	return report, err
}

// Record stores a finished run in the history, if one is configured. rec carries the
// source and document identity; the outcome fields are filled from p, report and runErr.
// Failures to record are logged and do not affect the run.
func (r *Relay) Record(ctx context.Context, rec *models.Delivery, p *Prepared, report dispatch.Report, runErr error) {
	if r.history == nil || report.RunID == "" {
		return
	}
	rec.RunID = report.RunID
	rec.Characters = p.Characters
	rec.Truncated = p.Truncated
	rec.Total = report.Total
	rec.Delivered = report.Delivered
	rec.HintSent = report.HintSent
	rec.Status = models.DeliveryStatus(runErr)
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().Add(-report.Elapsed)
	}
	rec.FinishedAt = rec.StartedAt.Add(report.Elapsed)
	if err := r.history.RecordDelivery(context.WithoutCancel(ctx), rec, p.Segments); err != nil {
		r.logger.Warn("failed to record delivery", zap.String("run_id", rec.RunID), zap.Error(err))
	}
}

// delivered reports whether fp is the fingerprint last delivered for docID.
func (r *Relay) delivered(ctx context.Context, docID, fp string) bool {
	r.seenMu.Lock()
	last, ok := r.seen[docID]
	r.seenMu.Unlock()
	if ok || r.history == nil {
		return last == fp
	}
	stored, err := r.history.GetFingerprint(ctx, docID)
	if err != nil {
		r.logger.Warn("failed to read fingerprint", zap.String("doc_id", docID), zap.Error(err))
		return false
	}
	return stored == fp
}

func (r *Relay) remember(ctx context.Context, docID, path, fp string) {
	r.seenMu.Lock()
	r.seen[docID] = fp
	r.seenMu.Unlock()
	if r.history == nil {
		return
	}
	if err := r.history.SetFingerprint(context.WithoutCancel(ctx), docID, path, fp); err != nil {
		r.logger.Warn("failed to store fingerprint", zap.String("doc_id", docID), zap.Error(err))
	}
}

// DeliverFile extracts the file at path and delivers its text. If allowedExts is non-empty,
// the file's extension must be in the list (case-insensitive). Returns ErrUnchanged if the
// same text was already delivered for this path.
func (r *Relay) DeliverFile(ctx context.Context, path string, allowedExts []string) (dispatch.Report, error) {
	r.logger.Debug("relay delivering file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return dispatch.Report{}, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return dispatch.Report{}, fmt.Errorf("not a regular file: %s", absPath)
	}
	text, err := r.extractor.Extract(absPath)
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("extract content: %w", err)
	}

	docID := fileid.FileDocID(absPath)
	fp := fileid.Fingerprint(text)
	if r.delivered(ctx, docID, fp) {
		r.logger.Debug("relay skipping unchanged file", zap.String("path", absPath))
		return dispatch.Report{}, ErrUnchanged
	}

	p, err := r.Prepare(text, r.segCfg)
	if err != nil {
		return dispatch.Report{}, fmt.Errorf("segment %s: %w", filepath.Base(absPath), err)
	}
	report, err := r.deliver(ctx, &models.Delivery{Source: absPath, DocID: docID, Fingerprint: fp}, p)
	if err != nil {
		return report, err
	}
	r.remember(ctx, docID, absPath, fp)
	r.logger.Info("relay file delivered", zap.String("path", absPath), zap.String("doc_id", docID),
		zap.Int("segments", report.Delivered), zap.Bool("truncated", p.Truncated))
	return report, nil
}

// Forget drops the delivery record of path so the next write is delivered again.
// The stored fingerprint is removed even if ctx is already cancelled.
func (r *Relay) Forget(ctx context.Context, path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	docID := fileid.FileDocID(absPath)
	r.seenMu.Lock()
	delete(r.seen, docID)
	r.seenMu.Unlock()
	if r.history != nil {
		if err := r.history.DeleteFingerprint(context.WithoutCancel(ctx), docID); err != nil {
			r.logger.Warn("failed to delete fingerprint", zap.String("doc_id", docID), zap.Error(err))
		}
	}
	r.logger.Debug("relay forgot file", zap.String("path", absPath))
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
