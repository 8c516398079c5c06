package defra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cank256/market-mail/internal/testutil"
)

func TestGenerateContainerName(t *testing.T) {
	a := GenerateContainerName("/home/user/.marketmail")
	b := GenerateContainerName("/home/other/.marketmail")

	if !strings.HasPrefix(a, ContainerNamePrefix) || len(a) != len(ContainerNamePrefix)+8 {
		t.Errorf("GenerateContainerName() = %q", a)
	}
	if a == b {
		t.Errorf("different homes share a name: %q", a)
	}
	if a != GenerateContainerName("/home/user/.marketmail") {
		t.Error("GenerateContainerName() is not deterministic")
	}
}

func TestNewDockerManager_ContainerNaming(t *testing.T) {
	tests := []struct {
		name string
		cfg  DockerConfig
		want string
	}{
		{"explicit name wins", DockerConfig{ContainerName: "custom", HomePath: "/h"}, "custom"},
		{"derived from home", DockerConfig{HomePath: "/h"}, GenerateContainerName("/h")},
		{"default", DockerConfig{}, DefaultContainerName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The docker client is created lazily; no daemon is needed here.
			mgr, err := NewDockerManager(tt.cfg)
			if err != nil {
				t.Fatalf("NewDockerManager() error = %v", err)
			}
			defer mgr.Close()

			if mgr.ContainerName() != tt.want {
				t.Errorf("ContainerName() = %q, want %q", mgr.ContainerName(), tt.want)
			}
			if mgr.URL() != "http://localhost:"+DefaultPort {
				t.Errorf("URL() = %q", mgr.URL())
			}
		})
	}
}

func TestWaitHealthy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := WaitHealthy(context.Background(), NewClient(srv.URL), 5*time.Second); err != nil {
		t.Fatalf("WaitHealthy() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("health checks = %d, want 2", calls.Load())
	}
}

func TestWaitHealthy_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := WaitHealthy(context.Background(), NewClient(srv.URL), time.Second); err == nil {
		t.Error("expected WaitHealthy() to fail")
	}
}

func TestDockerManager_Integration(t *testing.T) {
	testutil.RequireDocker(t)

	mgr, err := NewDockerManager(DockerConfig{
		ContainerName: testutil.UniqueContainerName(t, "defra"),
		HostPort:      "19181",
		Labels:        testutil.ContainerLabels(t),
		ReadyTimeout:  60 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewDockerManager() error = %v", err)
	}
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if status, _ := mgr.Status(ctx); status != StatusRunning {
		t.Errorf("Status() = %s, want running", status)
	}
	if err := NewClient(mgr.URL()).HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := mgr.Remove(ctx); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if status, _ := mgr.Status(ctx); status != StatusNotFound {
		t.Errorf("Status() after Remove = %s", status)
	}
}
