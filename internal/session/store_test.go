package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/topics"
)

func loadManifest(t *testing.T) *topics.Manifest {
	t.Helper()
	m, err := topics.LoadManifest("../topics/testdata/manifest.yaml")
	require.NoError(t, err)
	return m
}

func factoryFor(m *topics.Manifest) Factory {
	return func(initialURL string) (*navigation.Coordinator, error) {
		return navigation.NewCoordinator(m, navigation.Options{InitialURL: initialURL})
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore(time.Hour, factoryFor(loadManifest(t)), nil, nil)

	sess, err := s.Create("")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, "v1/user-guide/overview", sess.Coordinator.Selection().URL())

	require.Same(t, sess, s.Get(sess.ID))
	require.Nil(t, s.Get("missing"))
	require.Equal(t, 1, s.Len())
}

func TestStore_CreateDeepLink(t *testing.T) {
	s := NewStore(time.Hour, factoryFor(loadManifest(t)), nil, nil)

	sess, err := s.Create("/v1/user-guide/components/")
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/components/overview", sess.Snapshot().URL)

	_, err = s.Create("v9/user-guide/overview")
	require.Error(t, err)
	require.Equal(t, 1, s.Len())
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s := NewStore(time.Hour, factoryFor(loadManifest(t)), nil, nil)
	a, err := s.Create("")
	require.NoError(t, err)
	b, err := s.Create("")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	_, err = a.Coordinator.NavigateTo(context.Background(), navigation.KindVersion, "v2", "")
	require.NoError(t, err)
	require.Equal(t, "v2", a.Coordinator.Selection().Version)
	require.Equal(t, "v1", b.Coordinator.Selection().Version)
}

func TestStore_Cleanup(t *testing.T) {
	s := NewStore(time.Minute, factoryFor(loadManifest(t)), nil, nil)
	stale, err := s.Create("")
	require.NoError(t, err)
	fresh, err := s.Create("")
	require.NoError(t, err)

	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	require.Equal(t, 1, s.Cleanup())
	require.Nil(t, s.Get(stale.ID))
	require.NotNil(t, s.Get(fresh.ID))
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(time.Hour, factoryFor(loadManifest(t)), nil, nil)
	sess, err := s.Create("")
	require.NoError(t, err)
	s.Delete(sess.ID)
	require.Zero(t, s.Len())
}

func TestStore_Reload(t *testing.T) {
	m := loadManifest(t)
	s := NewStore(time.Hour, factoryFor(m), nil, nil)

	onV2, err := s.Create("v2/user-guide/getting-started")
	require.NoError(t, err)
	onV1, err := s.Create("v1/user-guide/components/state")
	require.NoError(t, err)

	// Drop v2 entirely.
	next := loadManifest(t)
	next.Versions = next.Versions[:1]
	delete(next.Topics, "v2")

	require.NoError(t, s.Reload(context.Background(), next, factoryFor(next)))
	require.Equal(t, "v1/user-guide/overview", onV2.Coordinator.Selection().URL())
	require.Equal(t, "v1/user-guide/components/state", onV1.Coordinator.Selection().URL())

	_, err = s.Create("v2/user-guide/overview2")
	require.Error(t, err)
}

func TestStore_CreateDuringReloadUsesNewManifest(t *testing.T) {
	m := loadManifest(t)
	next := loadManifest(t)
	next.Defaults = topics.Defaults{Version: "v2", Section: "user-guide"}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	slow := func(initialURL string) (*navigation.Coordinator, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return navigation.NewCoordinator(m, navigation.Options{InitialURL: initialURL})
	}
	s := NewStore(time.Hour, slow, nil, nil)

	created := make(chan *Session, 1)
	go func() {
		sess, err := s.Create("")
		if err != nil {
			created <- nil
			return
		}
		created <- sess
	}()

	<-entered
	require.NoError(t, s.Reload(context.Background(), next, factoryFor(next)))
	close(release)

	sess := <-created
	require.NotNil(t, sess)
	require.Equal(t, "v2/user-guide/overview2", sess.Coordinator.Selection().URL())
	require.Equal(t, 1, s.Len())
}

func TestStore_Run(t *testing.T) {
	s := NewStore(time.Millisecond, factoryFor(loadManifest(t)), nil, nil)
	_, err := s.Create("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
