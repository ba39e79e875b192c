package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestContentWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int32
	cw, err := NewContentWatcher(dir, 100*time.Millisecond, func() { changes.Add(1) }, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cw.Run(ctx)

	for i, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{byte('a' + i)}, 0o600))
	}
	require.Eventually(t, func() bool { return changes.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	require.Never(t, func() bool { return changes.Load() > 1 }, 300*time.Millisecond, 20*time.Millisecond)

	// Directories created after start are watched too.
	sub := filepath.Join(dir, "posts")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return changes.Load() == 2 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "new.md"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return changes.Load() == 3 }, 3*time.Second, 20*time.Millisecond)
}

func TestContentWatcher_IgnoresHiddenAndSwapFiles(t *testing.T) {
	cw := &ContentWatcher{}
	require.False(t, cw.relevant(fsEvent("/c/.post.md.swx", "create")))
	require.False(t, cw.relevant(fsEvent("/c/post.md~", "write")))
	require.False(t, cw.relevant(fsEvent("/c/post.md.swp", "write")))
	require.False(t, cw.relevant(fsEvent("/c/post.md", "chmod")))
	require.True(t, cw.relevant(fsEvent("/c/post.md", "write")))
}

func TestNewContentWatcher_MissingDir(t *testing.T) {
	_, err := NewContentWatcher(filepath.Join(t.TempDir(), "missing"), time.Second, func() {}, quietLogger())
	require.Error(t, err)
}

func TestDaemon_RunBuildsAndReceives(t *testing.T) {
	dir := t.TempDir()
	var builds, receives atomic.Int32
	build := func(context.Context) error {
		builds.Add(1)
		return nil
	}
	receive := func(context.Context) (int, error) {
		if receives.Add(1) == 1 {
			return 2, nil
		}
		return 0, nil
	}

	d := New(build, receive, Options{
		ContentDir:      dir,
		Debounce:        50 * time.Millisecond,
		ReceiveInterval: time.Hour,
		Logger:          quietLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		return builds.Load() >= 1 && d.status.received.Load() == 2
	}, 3*time.Second, 20*time.Millisecond)

	before := builds.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post.md"), []byte("hello"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() > before }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemon_Handler(t *testing.T) {
	reg := prom.NewRegistry()
	d := New(func(context.Context) error { return errors.New("boom") }, nil, Options{
		ContentDir: t.TempDir(),
		Registry:   reg,
		Logger:     quietLogger(),
	})
	d.runBuild(context.Background())

	h := d.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	require.Equal(t, int64(1), status.Builds)
	require.Equal(t, int64(1), status.Failures)
	require.Equal(t, "boom", status.LastError)
	require.NotNil(t, status.LastBuildAt)
	require.False(t, status.ReceiveConfigured)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "blogplugins_daemon_builds_total 1")
	require.Contains(t, rec.Body.String(), "blogplugins_daemon_build_failures_total 1")
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestDaemon_TriggerCoalesces(t *testing.T) {
	d := New(func(context.Context) error { return nil }, nil, Options{Logger: quietLogger()})
	d.TriggerBuild("a")
	d.TriggerBuild("b")
	require.Len(t, d.rebuildCh, 1)
}

func TestScheduler_Every(t *testing.T) {
	s, err := NewScheduler(quietLogger())
	require.NoError(t, err)
	var runs atomic.Int32
	id, err := s.Every("tick", 20*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)
	require.NotEmpty(t, id)
	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func fsEvent(name, op string) fsnotify.Event {
	ops := map[string]fsnotify.Op{
		"create": fsnotify.Create,
		"write":  fsnotify.Write,
		"chmod":  fsnotify.Chmod,
	}
	return fsnotify.Event{Name: name, Op: ops[op]}
}
