package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/statsmith/statsmith"
	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
)

// fakeBackend returns canned values and the configured error.
type fakeBackend struct {
	err      error
	panicMsg string
	lastPage int
}

func (f *fakeBackend) Player(_ context.Context, ident string) (*hypixel.Player, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &hypixel.Player{UUID: "069a79f444e94726a5befca90e38aaf5", DisplayName: ident}, nil
}

func (f *fakeBackend) Guild(_ context.Context, name, _ string) (*hypixel.Guild, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &hypixel.Guild{Name: name}, nil
}

func (f *fakeBackend) SkyBlock(context.Context, string) ([]hypixel.SkyBlockProfile, error) {
	return nil, f.err
}

func (f *fakeBackend) Card(context.Context, string, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (f *fakeBackend) Leaderboard(_ context.Context, name string, page int) (*leaderboard.Page, error) {
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return &leaderboard.Page{Leaderboard: name, Page: page, PageSize: leaderboard.PageSize}, nil
}

func (f *fakeBackend) Leaderboards() map[leaderboard.Category][]string {
	return map[leaderboard.Category][]string{leaderboard.CategoryBedWars: {"bedwars_wins"}}
}

func (f *fakeBackend) Health(context.Context) statsmith.Health {
	return statsmith.Health{Cards: true}
}

// recordingNotifier stores every alert it receives.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
	sent   chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 10)}
}

func (n *recordingNotifier) Notify(_ context.Context, a alert.Alert) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return nil
}

func do(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding %s response: %v", target, err)
		}
	}
	return rec, body
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", apperr.Invalid("bad"), 400},
		{"not found", apperr.NotFound("gone"), 404},
		{"not ready", apperr.ErrNotReady, 503},
		{"upstream", &apperr.UpstreamError{Service: "hypixel", Status: 429, Cause: "Key throttle"}, 429},
		{"upstream timeout", &apperr.UpstreamError{Service: "hypixel", Status: apperr.StatusTimeout, Timeout: true}, 504},
		{"upstream malformed", &apperr.UpstreamError{Service: "hypixel", Status: apperr.StatusMalformed}, 520},
		{"upstream no status", &apperr.UpstreamError{Service: "hypixel"}, 500},
		{"other", context.Canceled, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestServer_Stats(t *testing.T) {
	srv := New(&fakeBackend{})
	rec, body := do(t, srv, "/stats?name=Notch")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	player, ok := body["player"].(map[string]any)
	if !ok || player["displayName"] != "Notch" {
		t.Errorf("player = %v, want Notch", body["player"])
	}
}

func TestServer_UpstreamFailurePassthrough(t *testing.T) {
	notifier := newRecordingNotifier()
	srv := New(&fakeBackend{err: &apperr.UpstreamError{
		Service: "hypixel",
		Status:  429,
		Cause:   "Key throttle",
	}}, WithNotifier(notifier))

	rec, body := do(t, srv, "/stats?name=Notch")
	if rec.Code != 429 {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if body["success"] != false || body["cause"] != "Key throttle" || body["status"] != float64(429) {
		t.Errorf("body = %v, want failure with upstream cause", body)
	}
}

func TestServer_InternalFailureAlerts(t *testing.T) {
	notifier := newRecordingNotifier()
	srv := New(&fakeBackend{err: context.Canceled}, WithNotifier(notifier))

	rec, _ := do(t, srv, "/guild?name=Miners")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	<-notifier.sent
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.alerts) != 1 || notifier.alerts[0].Level != alert.LevelError {
		t.Errorf("alerts = %+v, want one error alert", notifier.alerts)
	}
}

func TestServer_Panic(t *testing.T) {
	notifier := newRecordingNotifier()
	srv := New(&fakeBackend{panicMsg: "boom"}, WithNotifier(notifier))

	rec, body := do(t, srv, "/stats?name=Notch")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if body["success"] != false || body["cause"] != "panic: boom" {
		t.Errorf("body = %v, want failure with the panic message", body)
	}
	<-notifier.sent
}

func TestServer_Leaderboard(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		err      error
		want     int
		wantPage int
	}{
		{"default page", "/leaderboard?leaderboard=bedwars_wins", nil, 200, 1},
		{"explicit page", "/leaderboard?leaderboard=bedwars_wins&page=3", nil, 200, 3},
		{"missing name", "/leaderboard", nil, 400, 0},
		{"bad page", "/leaderboard?leaderboard=bedwars_wins&page=x", nil, 400, 0},
		{"page below one", "/leaderboard?leaderboard=bedwars_wins&page=0", apperr.Invalid("page must be at least 1"), 400, 0},
		{"unknown", "/leaderboard?leaderboard=nope", apperr.NotFound("unknown leaderboard"), 400, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{err: tt.err}
			rec, body := do(t, New(backend), tt.target)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantPage != 0 && backend.lastPage != tt.wantPage {
				t.Errorf("page = %d, want %d", backend.lastPage, tt.wantPage)
			}
			if tt.want == 200 && body["leaderboard"] != "bedwars_wins" {
				t.Errorf("leaderboard = %v, want bedwars_wins", body["leaderboard"])
			}
		})
	}
}

func TestServer_Leaderboards(t *testing.T) {
	_, body := do(t, New(&fakeBackend{}), "/leaderboards")
	index, ok := body["leaderboards"].(map[string]any)
	if !ok {
		t.Fatalf("leaderboards = %v, want object", body["leaderboards"])
	}
	if _, ok := index["bedwars"]; !ok {
		t.Errorf("index = %v, want bedwars category", index)
	}
}

func TestServer_Card(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, 200},
		{"not ready", apperr.ErrNotReady, 503},
		{"invalid game", apperr.Invalid("unknown game"), 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, New(&fakeBackend{err: tt.err}), "/card/notch.png?name=Notch&game=bedwars")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == 200 && rec.Header().Get("Content-Type") != "image/png" {
				t.Errorf("Content-Type = %q, want image/png", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_SkyBlockEmpty(t *testing.T) {
	_, body := do(t, New(&fakeBackend{}), "/skyblock?name=Notch")
	if profiles, ok := body["profiles"].([]any); !ok || len(profiles) != 0 {
		t.Errorf("profiles = %v, want empty list", body["profiles"])
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec, _ := do(t, New(&fakeBackend{}, WithGatherer(reg)), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_total 1") {
		t.Errorf("metrics body missing test_total:\n%s", rec.Body.String())
	}

	rec, _ = do(t, New(&fakeBackend{}), "/metrics")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status without gatherer = %d, want 404", rec.Code)
	}
}

func TestServer_Health(t *testing.T) {
	rec, body := do(t, New(&fakeBackend{}), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	health, _ := body["health"].(map[string]any)
	if health["cards"] != true {
		t.Errorf("health = %v, want cards ready", body["health"])
	}
}
