package statsmithfx

import (
	"context"
	"net/http"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith"
	"github.com/statsmith/statsmith/internal/config"
	"github.com/statsmith/statsmith/internal/leaderboard"
)

func TestModule_StartsWithDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"

	var (
		svc *statsmith.Service
		pub *leaderboard.Publisher
		srv *http.Server
	)
	app := fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
		Module,
		fx.Populate(&svc, &pub, &srv),
	)
	app.RequireStart()
	defer app.RequireStop()

	if svc == nil {
		t.Fatal("service not provided")
	}
	if pub != nil {
		t.Error("publisher provided without an artifact backend")
	}
	if srv.Handler == nil {
		t.Error("server has no handler")
	}
	if got := len(svc.Leaderboards()); got != len(leaderboard.Categories) {
		t.Errorf("Leaderboards() categories = %d, want %d", got, len(leaderboard.Categories))
	}
	if h := svc.Health(context.Background()); h.Rows != 0 {
		t.Errorf("Health().Rows = %d, want 0", h.Rows)
	}
}

func TestModule_DiskArtifacts(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.Metrics.Enabled = false
	cfg.Artifacts.Backend = "disk"
	cfg.Artifacts.Path = t.TempDir()

	var pub *leaderboard.Publisher
	app := fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
		Module,
		fx.Populate(&pub),
	)
	app.RequireStart()
	defer app.RequireStop()

	if pub == nil {
		t.Fatal("publisher not provided for the disk backend")
	}
}

func TestNewPublisher_UnknownCodec(t *testing.T) {
	cfg := config.Default()
	cfg.Artifacts.Codec = "lz4"
	if _, err := newPublisher(cfg, fxtest.NewLifecycle(t), zap.NewNop()); err == nil {
		t.Error("newPublisher() error = nil, want unknown codec error")
	}
}
