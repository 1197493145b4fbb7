package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/config"
	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/relay"
)

type mockInbox struct {
	dirs []string
}

func (m *mockInbox) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockInbox) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockInbox) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Delivery.SendDelay = 0
	cfg.Delivery.StartHintDelay = 0
	limits := relay.Limits{MinTotalLength: cfg.Delivery.MinTotalLength, MaxTotalLength: cfg.Delivery.MaxTotalLength}
	rl := relay.New(cfg.Segmentation.SegmentConfig(),
		dispatch.NewScheduler(cfg.Delivery.DispatchOptions()),
		dispatch.SenderFunc(func(context.Context, dispatch.Action) error { return nil }),
		relay.WithLimits(limits))
	return NewServer(rl, cfg, zap.NewNop(), opts...), cfg
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

const essay = "Rivers shape the land slowly. They carve valleys over ages.\n\n" +
	"Floods bring soil to the plains. Farmers have relied on this for millennia.\n\n" +
	"Today dams control most large rivers. The balance has changed."

func TestHandleSegment(t *testing.T) {
	srv, _ := newTestServer(t)
	length := 80
	req := models.SegmentRequest{
		Content:      essay,
		Segmentation: &models.SegmentationOverrides{SegmentLength: &length},
	}
	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/segment", req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SegmentResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count < 2 || out.Count != len(out.Segments) {
		t.Errorf("count: got %d with %d segments", out.Count, len(out.Segments))
	}
	if out.Algorithm != "smart" || out.Characters != len([]rune(essay)) {
		t.Errorf("algorithm=%q characters=%d", out.Algorithm, out.Characters)
	}
	var rebuilt strings.Builder
	for _, seg := range out.Segments {
		rebuilt.WriteString(seg.Content)
		rebuilt.WriteString(seg.Separator)
	}
	if rebuilt.String() != essay {
		t.Errorf("segments do not rebuild the document:\n%q", rebuilt.String())
	}
}

func TestHandleSegment_errors(t *testing.T) {
	srv, _ := newTestServer(t)
	bogus := "bogus"
	zero := 0
	tests := []struct {
		name string
		body interface{}
	}{
		{"empty content", models.SegmentRequest{Content: "  "}},
		{"unknown algorithm", models.SegmentRequest{Content: essay, Segmentation: &models.SegmentationOverrides{Algorithm: &bogus}}},
		{"zero segment length", models.SegmentRequest{Content: essay, Segmentation: &models.SegmentationOverrides{SegmentLength: &zero}}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/segment", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func readEvents(t *testing.T, body *bytes.Buffer) []models.DeliveryEvent {
	t.Helper()
	var events []models.DeliveryEvent
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		var ev models.DeliveryEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("bad event line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestHandleDeliver(t *testing.T) {
	srv, _ := newTestServer(t)
	length := 80
	req := models.SegmentRequest{
		Content:      essay,
		Segmentation: &models.SegmentationOverrides{SegmentLength: &length},
	}
	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/deliver", req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type: %s", ct)
	}
	events := readEvents(t, w.Body)
	if len(events) < 4 {
		t.Fatalf("expected hint, segments and done; got %d events", len(events))
	}
	first := events[0]
	if first.Type != models.EventAction || first.Action.Kind != dispatch.KindHint || !first.Action.QuoteRequest {
		t.Errorf("first event should be the quoted start hint: %+v", first.Action)
	}
	last := events[len(events)-1]
	if last.Type != models.EventDone || last.Report == nil {
		t.Fatalf("last event should be done with a report: %+v", last)
	}
	segments := events[1 : len(events)-1]
	if last.Report.Delivered != len(segments) || !last.Report.HintSent {
		t.Errorf("report %+v for %d segments", last.Report, len(segments))
	}
	for i, ev := range segments {
		if ev.Action.Index != i+1 || ev.Action.Total != len(segments) {
			t.Errorf("segment %d: index %d total %d", i, ev.Action.Index, ev.Action.Total)
		}
		if !strings.HasPrefix(ev.Action.Content, "(") {
			t.Errorf("segment %d missing progress prefix: %q", i, ev.Action.Content)
		}
	}
}

func TestHandleDeliver_overrides(t *testing.T) {
	srv, _ := newTestServer(t)
	off := false
	req := models.SegmentRequest{
		Content:  "Just one short answer.",
		Delivery: &models.DeliveryOverrides{ShowStartHint: &off},
	}
	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/deliver", req)
	events := readEvents(t, w.Body)
	if len(events) != 2 {
		t.Fatalf("expected one action and done, got %d events", len(events))
	}
	a := events[0].Action
	if a.Kind != dispatch.KindSegment || a.Content != "Just one short answer." || !a.QuoteRequest {
		t.Errorf("single segment action: %+v", a)
	}

	neg := -2.0
	req.Delivery = &models.DeliveryOverrides{SendDelay: &neg}
	w = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/deliver", req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative delay: status %d", w.Code)
	}
}

func TestHandleDeliver_clientDisconnectCancelsRun(t *testing.T) {
	cancelled := make(chan struct{})
	blockUntilDone := func(ctx context.Context, _ time.Duration) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}
	srv, _ := newTestServer(t, WithSchedulerOptions(dispatch.WithSleeper(blockUntilDone)))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	length := 80
	body, _ := json.Marshal(models.SegmentRequest{
		Content:      essay,
		Segmentation: &models.SegmentationOverrides{SegmentLength: &length},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL+"/api/v1/deliver", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read first event: %v", err)
	}
	var ev models.DeliveryEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Action == nil || ev.Action.Kind != dispatch.KindHint {
		t.Fatalf("first event: %s (%v)", line, err)
	}
	cancel()

	select {
	case <-cancelled:
	case <-time.After(3 * time.Second):
		t.Fatal("run was not cancelled after the client went away")
	}
}

func TestHandleConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Segmentation config.SegmentationConfig `json:"segmentation"`
		Delivery     config.DeliveryConfig     `json:"delivery"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Segmentation.SegmentLength != 400 || out.Segmentation.MaxSegments != 4 {
		t.Errorf("segmentation: %+v", out.Segmentation)
	}
	if out.Delivery.MaxTotalLength != 3000 {
		t.Errorf("delivery: %+v", out.Delivery)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestHandleInboxDirectoriesList(t *testing.T) {
	mock := &mockInbox{dirs: []string{"/tmp/inbox"}}
	srv, _ := newTestServer(t, WithInbox(mock, ""))

	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/inbox/directories", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/inbox" {
		t.Errorf("directories: got %v", out.Directories)
	}
}

func TestHandleInboxDirectories_NotEnabled(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		w := doJSON(t, srv.Handler(), method, "/api/v1/inbox/directories", nil)
		if w.Code != http.StatusNotImplemented {
			t.Errorf("%s: status got %d, want 501", method, w.Code)
		}
	}
}

func TestHandleInboxDirectoriesAddRemove_persists(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	mock := &mockInbox{}
	srv, _ := newTestServer(t, WithInbox(mock, configPath))
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/v1/inbox/directories", models.DirectoryRequest{Path: dir})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.Directories()) != 1 {
		t.Errorf("expected 1 directory, got %v", mock.Directories())
	}
	saved, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load persisted config: %v", err)
	}
	if len(saved.Inbox.Directories) != 1 || saved.Inbox.Directories[0] != dir {
		t.Errorf("persisted directories: %v", saved.Inbox.Directories)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/inbox/directories?path="+dir, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status: got %d", w.Code)
	}
	if len(mock.Directories()) != 0 {
		t.Errorf("expected 0 directories, got %v", mock.Directories())
	}
}

func TestHandleInboxDirectories_oversizedBody(t *testing.T) {
	mock := &mockInbox{}
	srv, _ := newTestServer(t, WithInbox(mock, ""))
	h := srv.Handler()
	body := `{"path":"` + strings.Repeat("a", maxBodyBytes) + `"}`

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		r := httptest.NewRequest(method, "/api/v1/inbox/directories", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d, want 400", method, w.Code)
		}
	}
	if len(mock.dirs) != 0 {
		t.Errorf("inbox changed by oversized request: %v", mock.dirs)
	}
}

func TestHandleInboxDirectoriesAdd_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	mock := &mockInbox{}
	srv, _ := newTestServer(t, WithInbox(mock, ""))

	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/inbox/directories", models.DirectoryRequest{Path: dir + "/nonexistent"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d", w.Code)
	}
	w = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/inbox/directories", models.DirectoryRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing path: status got %d", w.Code)
	}
}
