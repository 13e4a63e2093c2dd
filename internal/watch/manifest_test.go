package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/topics"
)

const manifestV1 = `versions: [{id: v1}]
sections: [{id: guide}]
topics:
  v1:
    guide:
      - id: intro
`

const manifestV2 = `versions: [{id: v1}, {id: v2}]
sections: [{id: guide}]
topics:
  v1:
    guide:
      - id: intro
  v2:
    guide:
      - id: start
`

type applied struct {
	mu  sync.Mutex
	got []*topics.Manifest
}

func (a *applied) apply(_ context.Context, m *topics.Manifest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got = append(a.got, m)
	return nil
}

func (a *applied) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.got)
}

func (a *applied) last() *topics.Manifest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.got[len(a.got)-1]
}

func writeManifest(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestManifestWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	writeManifest(t, path, manifestV1)

	var a applied
	w, err := NewManifestWatcher(path, time.Millisecond, a.apply, nil, nil)
	require.NoError(t, err)

	require.NoError(t, w.Reload(context.Background()))
	require.Equal(t, 1, a.count())
	require.Len(t, a.last().Versions, 1)
}

func TestManifestWatcher_ReloadKeepsCurrentOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	writeManifest(t, path, "versions: [")

	var a applied
	w, err := NewManifestWatcher(path, time.Millisecond, a.apply, nil, nil)
	require.NoError(t, err)

	require.Error(t, w.Reload(context.Background()))
	require.Zero(t, a.count())
}

func TestManifestWatcher_ReloadApplyError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	writeManifest(t, path, manifestV1)

	boom := errors.New("boom")
	w, err := NewManifestWatcher(path, time.Millisecond, func(context.Context, *topics.Manifest) error { return boom }, nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, w.Reload(context.Background()), boom)
}

func TestManifestWatcher_RunReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.yaml")
	writeManifest(t, path, manifestV1)

	var a applied
	w, err := NewManifestWatcher(path, 20*time.Millisecond, a.apply, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	<-w.ready

	// Unrelated files in the directory are ignored.
	writeManifest(t, filepath.Join(dir, "other.yaml"), "x: 1")
	writeManifest(t, path, manifestV2)

	require.Eventually(t, func() bool { return a.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, a.last().Versions, 2)

	cancel()
	require.NoError(t, <-done)
}
