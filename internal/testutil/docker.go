package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

const (
	// CleanupLabel marks price store containers started by tests.
	CleanupLabel = "marketmail-test"

	// DockerTestsEnv opts in to tests that run a real DefraDB container.
	DockerTestsEnv = "MARKETMAIL_DOCKER_TESTS"
)

// TestingT is the part of testing.T the Docker helpers need.
type TestingT interface {
	Name() string
	Cleanup(func())
	Logf(format string, args ...any)
	Skipf(format string, args ...any)
	Helper()
}

// RequireDocker skips the test unless DockerTestsEnv is set, the run is not
// -short and a Docker daemon answers. Containers labelled for the test are
// removed when it finishes, including ones orphaned by an interrupted run.
func RequireDocker(t TestingT) *client.Client {
	t.Helper()
	if testing.Short() || os.Getenv(DockerTestsEnv) == "" {
		t.Skipf("set %s=1 to run DefraDB container tests", DockerTestsEnv)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		t.Skipf("docker daemon not reachable: %v", err)
	}

	removeTestContainers(t, cli)
	t.Cleanup(func() {
		removeTestContainers(t, cli)
		cli.Close()
	})
	return cli
}

// UniqueContainerName returns marketmail-test-<prefix>-<test>-<random>.
func UniqueContainerName(t TestingT, prefix string) string {
	t.Helper()
	return fmt.Sprintf("%s-%s-%s-%s", CleanupLabel, prefix, containerSafe(t.Name()), randHex(4))
}

// ContainerLabels tags a container with the owning test's name.
func ContainerLabels(t TestingT) map[string]string {
	return map[string]string{CleanupLabel: t.Name()}
}

func removeTestContainers(t TestingT, cli *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := filters.NewArgs()
	args.Add("label", CleanupLabel+"="+t.Name())
	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		t.Logf("listing test containers: %v", err)
		return
	}

	for _, c := range containers {
		name := c.ID[:12]
		if len(c.Names) > 0 {
			name = c.Names[0]
		}
		timeout := 10
		_ = cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout})
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			t.Logf("removing price store container %s: %v", name, err)
			continue
		}
		t.Logf("removed price store container %s", name)
	}
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// containerSafe keeps the characters Docker allows in a name, mapping
// subtest separators to dashes, and caps the result at 30 bytes.
func containerSafe(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/' || r == '_' || r == '-':
			b.WriteByte('-')
		}
		if b.Len() == 30 {
			break
		}
	}
	return b.String()
}
