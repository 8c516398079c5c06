package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Cank256/market-mail/internal/config"
	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/server/endpoints"
	"github.com/Cank256/market-mail/internal/testutil"
)

func newDockerServer(t *testing.T, cfg testutil.ServerConfig) *Server {
	t.Helper()
	cm, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}
	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		DefraDataPath: cfg.DefraDataPath,
		DefraConfig: defra.DockerConfig{
			ContainerName: cfg.DefraConfig.ContainerName,
			HostPort:      cfg.DefraConfig.HostPort,
			Labels:        cfg.DefraConfig.Labels,
		},
		ConfigManager: cm,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func containerRunning(t *testing.T, ctx context.Context, name string) bool {
	t.Helper()
	mgr, err := defra.NewDockerManager(defra.DockerConfig{ContainerName: name})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer mgr.Close()
	status, err := mgr.Status(ctx)
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if status == defra.StatusRunning {
		_ = mgr.Stop(ctx)
		return true
	}
	return false
}

func TestServer_FullLifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	srv := newDockerServer(t, cfg)
	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 90*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	t.Run("ready", func(t *testing.T) {
		var health endpoints.HealthResponse
		if code := get(t, cfg.URL()+"/ready", &health); code != http.StatusOK {
			t.Fatalf("ready status = %d", code)
		}
		if health.Defra != "ok" {
			t.Errorf("health.Defra = %q, want ok", health.Defra)
		}
	})

	t.Run("status", func(t *testing.T) {
		status, err := testutil.GetStatus(cfg.URL())
		if err != nil {
			t.Fatal(err)
		}
		if status.Server != "running" || status.Defra.Container != "running" {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("submission round trip", func(t *testing.T) {
		body := `{"FromFull":{"Email":"jane@example.com"},"MessageID":"m-1","TextBody":"Market: Owino\nDate: 2026-03-01\nRice (kg): 4500\nBeans (kg): 5200\n"}`
		resp, err := http.Post(cfg.URL()+"/api/inbound", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		var saved endpoints.InboundResponse
		json.NewDecoder(resp.Body).Decode(&saved)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || saved.Data.ID == "" {
			t.Fatalf("inbound = %d %+v", resp.StatusCode, saved)
		}

		var latest prices.Submission
		if code := get(t, cfg.URL()+"/api/markets/owino/latest", &latest); code != http.StatusOK {
			t.Fatalf("latest status = %d", code)
		}
		if latest.Market != "Owino" || len(latest.Items) != 2 {
			t.Errorf("latest = %+v", latest)
		}
	})

	t.Run("defra client", func(t *testing.T) {
		svc := srv.Services()
		if svc == nil || svc.DefraClient == nil {
			t.Fatal("services not wired")
		}
		if err := svc.DefraClient.HealthCheck(ctx); err != nil {
			t.Errorf("DefraDB health check failed: %v", err)
		}
	})

	serverCancel()
	if err := testutil.WaitForShutdown(serverErr, 30*time.Second); err != nil {
		t.Logf("server returned error during shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	if containerRunning(t, ctx, cfg.DefraConfig.ContainerName) {
		t.Error("DefraDB still running after server shutdown")
	}
}

// The server removes a leftover container before starting.
func TestServer_CleansUpOrphanedContainer(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	mgr, err := defra.NewDockerManager(defra.DockerConfig{
		ContainerName: cfg.DefraConfig.ContainerName,
		DataPath:      cfg.DefraDataPath,
		HostPort:      cfg.DefraConfig.HostPort,
		Labels:        cfg.DefraConfig.Labels,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if err := mgr.Start(ctx); err != nil {
		mgr.Close()
		t.Fatalf("failed to start orphan container: %v", err)
	}
	mgr.Close()

	srv := newDockerServer(t, cfg)
	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 90*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start after cleaning orphan: %v", err)
	}
	if code := get(t, cfg.URL()+"/ready", nil); code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", code)
	}

	serverCancel()
	<-serverErr
}
