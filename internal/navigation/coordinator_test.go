package navigation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docnav/internal/catalog"
	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/topics"
	"github.com/stretchr/testify/require"
)

func docsManifest() *topics.Manifest {
	return &topics.Manifest{
		Versions: []catalog.Entry{{ID: "v1", Label: "v1"}, {ID: "v2", Label: "v2"}},
		Sections: []catalog.Entry{
			{ID: "user-guide", Label: "User Guide"},
			{ID: "contributor-guide", Label: "Contributor Guide"},
			{ID: "api-reference", Label: "API Reference"},
		},
		Defaults: topics.Defaults{Version: "v1", Section: "user-guide"},
		Topics: topics.Tree{
			"v1": {
				"user-guide": {
					{ID: "overview", Label: "Overview"},
					{ID: "getting-started", Label: "Getting Started"},
					{ID: "components", Label: "Components", Children: []topics.Node{
						{ID: "overview", Label: "Overview"},
						{ID: "state", Label: "State"},
					}},
				},
				"contributor-guide": {{ID: "overview", Label: "Overview"}},
			},
			"v2": {
				"user-guide": {
					{ID: "overview2", Label: "Overview"},
					{ID: "getting-started", Label: "Getting Started"},
				},
				"contributor-guide": {{ID: "overview", Label: "Overview"}},
			},
		},
	}
}

func newCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(docsManifest(), Options{})
	require.NoError(t, err)
	return c
}

func TestNewCoordinator_Defaults(t *testing.T) {
	c := newCoordinator(t)
	require.Equal(t, Selection{Version: "v1", Section: "user-guide", Topic: "overview"}, c.Selection())
	require.Len(t, c.VisibleTopics(), 3)
}

func TestNewCoordinator_NoDefaultsUsesFirstPairWithContent(t *testing.T) {
	m := docsManifest()
	m.Defaults = topics.Defaults{}
	m.Sections = append([]catalog.Entry{{ID: "api-reference"}}, m.Sections[:2]...)
	c, err := NewCoordinator(m, Options{})
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/overview", c.Selection().URL())
}

func TestNewCoordinator_DefaultTopic(t *testing.T) {
	m := docsManifest()
	m.Defaults.Topic = "components"
	c, err := NewCoordinator(m, Options{})
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/components/overview", c.Selection().URL())
}

func TestNewCoordinator_DefaultPairWithoutContent(t *testing.T) {
	m := docsManifest()
	m.Defaults = topics.Defaults{Version: "v1", Section: "api-reference"}
	_, err := NewCoordinator(m, Options{})
	require.ErrorIs(t, err, naverrors.ErrNoContentForSelection)
}

func TestNewCoordinator_DeepLink(t *testing.T) {
	c, err := NewCoordinator(docsManifest(), Options{InitialURL: "/v1/user-guide/components/state"})
	require.NoError(t, err)
	require.Equal(t, Selection{Version: "v1", Section: "user-guide", Topic: "components", SubTopic: "state"}, c.Selection())

	_, err = NewCoordinator(docsManifest(), Options{InitialURL: "v1/user-guide/missing"})
	require.ErrorIs(t, err, naverrors.ErrUnknownCatalogEntry)
}

func TestNavigateTo_VersionScenarioA(t *testing.T) {
	c := newCoordinator(t)
	url, err := c.NavigateTo(context.Background(), KindVersion, "v2", "")
	require.NoError(t, err)
	require.Equal(t, "v2/user-guide/overview2", url)
	require.Equal(t, Selection{Version: "v2", Section: "user-guide", Topic: "overview2"}, c.Selection())
	require.Equal(t, []string{"overview2", "getting-started"}, ids(c.VisibleTopics()))
}

func TestNavigateTo_UnknownTopicScenarioB(t *testing.T) {
	c := newCoordinator(t)
	before := c.Selection()
	_, err := c.NavigateTo(context.Background(), KindTopic, "does-not-exist", "")
	require.ErrorIs(t, err, naverrors.ErrUnknownCatalogEntry)
	require.Equal(t, before, c.Selection())
}

func TestNavigateTo_SectionScenarioC(t *testing.T) {
	c := newCoordinator(t)
	url, err := c.NavigateTo(context.Background(), KindSection, "contributor-guide", "")
	require.NoError(t, err)
	require.Equal(t, "v1/contributor-guide/overview", url)
	sel := c.Selection()
	require.Equal(t, "overview", sel.Topic)
	require.Empty(t, sel.SubTopic)
}

func TestNavigateTo_TopicSelectsFirstChild(t *testing.T) {
	c := newCoordinator(t)
	url, err := c.NavigateTo(context.Background(), KindTopic, "components", "")
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/components/overview", url)
	require.Equal(t, "overview", c.Selection().SubTopic)

	url, err = c.NavigateTo(context.Background(), KindTopic, "components", "state")
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/components/state", url)
}

func TestNavigateTo_ResetCascadesIntoChildren(t *testing.T) {
	m := docsManifest()
	m.Topics["v2"]["user-guide"] = []topics.Node{
		{ID: "components", Children: []topics.Node{{ID: "intro"}, {ID: "state"}}},
	}
	c, err := NewCoordinator(m, Options{})
	require.NoError(t, err)

	url, err := c.NavigateTo(context.Background(), KindVersion, "v2", "")
	require.NoError(t, err)
	require.Equal(t, "v2/user-guide/components/intro", url)
}

func TestNavigateTo_FailuresAreAtomic(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		kind  Kind
		value string
		sub   string
		want  error
	}{
		{"unknown version", KindVersion, "v9", "", naverrors.ErrUnknownCatalogEntry},
		{"unknown section", KindSection, "nope", "", naverrors.ErrUnknownCatalogEntry},
		{"empty section", KindSection, "api-reference", "", naverrors.ErrNoContentForSelection},
		{"bad sub-topic", KindTopic, "components", "nope", naverrors.ErrInvalidSubTopic},
		{"sub-topic on leaf", KindTopic, "overview", "state", naverrors.ErrInvalidSubTopic},
		{"unknown kind", Kind("page"), "x", "", naverrors.ErrUnknownCatalogEntry},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCoordinator(t)
			_, err := c.NavigateTo(ctx, KindTopic, "components", "state")
			require.NoError(t, err)
			before := c.Selection()
			visible := c.VisibleTopics()

			var notified int
			c.Subscribe(func(context.Context, Update) { notified++ })

			_, err = c.NavigateTo(ctx, tc.kind, tc.value, tc.sub)
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, before, c.Selection())
			require.Equal(t, visible, c.VisibleTopics())
			require.Zero(t, notified)
		})
	}
}

func TestNavigateTo_VersionWithoutSectionContent(t *testing.T) {
	m := docsManifest()
	delete(m.Topics["v2"], "contributor-guide")
	c, err := NewCoordinator(m, Options{})
	require.NoError(t, err)

	_, err = c.NavigateTo(context.Background(), KindSection, "contributor-guide", "")
	require.NoError(t, err)
	before := c.Selection()

	_, err = c.NavigateTo(context.Background(), KindVersion, "v2", "")
	require.ErrorIs(t, err, naverrors.ErrNoContentForSelection)
	require.Equal(t, before, c.Selection())
}

func TestSubscribe_DeliveredInOrderBeforeReturn(t *testing.T) {
	c := newCoordinator(t)
	var got []string
	c.Subscribe(func(_ context.Context, u Update) {
		got = append(got, "sidebar:"+u.Selection.URL())
	})
	c.Subscribe(func(_ context.Context, u Update) {
		got = append(got, fmt.Sprintf("breadcrumb:%d", len(u.Topics)))
	})

	_, err := c.NavigateTo(context.Background(), KindVersion, "v2", "")
	require.NoError(t, err)
	require.Equal(t, []string{"sidebar:v2/user-guide/overview2", "breadcrumb:2"}, got)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := newCoordinator(t)
	var calls int
	unsubscribe := c.Subscribe(func(context.Context, Update) { calls++ })

	_, err := c.NavigateTo(context.Background(), KindTopic, "getting-started", "")
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()

	_, err = c.NavigateTo(context.Background(), KindTopic, "overview", "")
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestSubscribe_UpdateIsACopy(t *testing.T) {
	c := newCoordinator(t)
	c.Subscribe(func(_ context.Context, u Update) {
		u.Topics[0].ID = "mutated"
	})
	_, err := c.NavigateTo(context.Background(), KindSection, "user-guide", "")
	require.NoError(t, err)
	require.Equal(t, "overview", c.VisibleTopics()[0].ID)
}

func TestSubscribe_ReentrantNavigationRejected(t *testing.T) {
	c := newCoordinator(t)
	var inner error
	c.Subscribe(func(ctx context.Context, u Update) {
		_, inner = c.NavigateTo(ctx, KindTopic, "getting-started", "")
	})

	url, err := c.NavigateTo(context.Background(), KindVersion, "v2", "")
	require.NoError(t, err)
	require.Equal(t, "v2/user-guide/overview2", url)
	require.ErrorIs(t, inner, naverrors.ErrReentrantNavigation)
	require.Equal(t, "overview2", c.Selection().Topic)
}

func TestSubscribe_ReentrantCallWithFreshContextRejected(t *testing.T) {
	c := newCoordinator(t)
	var navErr, restoreErr, reloadErr error
	c.Subscribe(func(context.Context, Update) {
		ctx := context.Background()
		_, navErr = c.NavigateTo(ctx, KindVersion, "v1", "")
		_, restoreErr = c.RestoreURL(ctx, "v1/user-guide/overview")
		reloadErr = c.Reload(ctx, docsManifest())
	})

	done := make(chan string, 1)
	go func() {
		url, _ := c.NavigateTo(context.Background(), KindVersion, "v2", "")
		done <- url
	}()

	select {
	case url := <-done:
		require.Equal(t, "v2/user-guide/overview2", url)
	case <-time.After(2 * time.Second):
		t.Fatal("navigation from a subscriber blocked")
	}
	require.ErrorIs(t, navErr, naverrors.ErrReentrantNavigation)
	require.ErrorIs(t, restoreErr, naverrors.ErrReentrantNavigation)
	require.ErrorIs(t, reloadErr, naverrors.ErrReentrantNavigation)
	require.Equal(t, "v2/user-guide/overview2", c.Selection().URL())

	// The guard is lifted once the broadcast returns.
	url, err := c.NavigateTo(context.Background(), KindVersion, "v1", "")
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/overview", url)
}

func TestSelection_ComposedFromCatalogs(t *testing.T) {
	c := newCoordinator(t)
	_, err := c.NavigateTo(context.Background(), KindSection, "contributor-guide", "")
	require.NoError(t, err)
	_, err = c.NavigateTo(context.Background(), KindVersion, "v2", "")
	require.NoError(t, err)

	require.Equal(t, "v2", c.versions.Active())
	require.Equal(t, "contributor-guide", c.sections.Active())
	require.Equal(t, Selection{Version: "v2", Section: "contributor-guide", Topic: "overview"}, c.Selection())

	_, err = c.NavigateTo(context.Background(), KindVersion, "v9", "")
	require.ErrorIs(t, err, naverrors.ErrUnknownCatalogEntry)
	require.Equal(t, "v2", c.versions.Active())
}

func TestRestore(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()

	url, err := c.RestoreURL(ctx, "v1/user-guide/components")
	require.NoError(t, err)
	require.Equal(t, "v1/user-guide/components/overview", url)

	url, err = c.Restore(ctx, Selection{Version: "v2", Section: "contributor-guide", Topic: "overview"})
	require.NoError(t, err)
	require.Equal(t, "v2/contributor-guide/overview", url)
	require.Equal(t, []string{"overview"}, ids(c.VisibleTopics()))

	before := c.Selection()
	_, err = c.RestoreURL(ctx, "v1/api-reference/x")
	require.ErrorIs(t, err, naverrors.ErrNoContentForSelection)
	_, err = c.RestoreURL(ctx, "v1/user-guide")
	require.ErrorIs(t, err, naverrors.ErrMalformedURL)
	_, err = c.RestoreURL(ctx, "v3/user-guide/overview")
	require.ErrorIs(t, err, naverrors.ErrUnknownCatalogEntry)
	require.Equal(t, before, c.Selection())
}

func TestReload_KeepsValidSelection(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()
	_, err := c.NavigateTo(ctx, KindTopic, "getting-started", "")
	require.NoError(t, err)

	m := docsManifest()
	m.Topics["v1"]["user-guide"] = append(m.Topics["v1"]["user-guide"], topics.Node{ID: "faq"})

	var updates int
	c.Subscribe(func(context.Context, Update) { updates++ })
	require.NoError(t, c.Reload(ctx, m))

	require.Equal(t, "v1/user-guide/getting-started", c.Selection().URL())
	require.Equal(t, []string{"overview", "getting-started", "components", "faq"}, ids(c.VisibleTopics()))
	require.Equal(t, 1, updates)
}

func TestReload_FallsBackToDefaults(t *testing.T) {
	c := newCoordinator(t)
	ctx := context.Background()
	_, err := c.NavigateTo(ctx, KindVersion, "v2", "")
	require.NoError(t, err)

	m := docsManifest()
	m.Versions = m.Versions[:1]
	delete(m.Topics, "v2")
	require.NoError(t, c.Reload(ctx, m))

	require.Equal(t, "v1/user-guide/overview", c.Selection().URL())
	require.Len(t, c.Catalog(KindVersion), 1)
}

func TestCatalog(t *testing.T) {
	c := newCoordinator(t)
	require.Equal(t, []string{"v1", "v2"}, entryIDs(c.Catalog(KindVersion)))
	require.Equal(t, []string{"user-guide", "contributor-guide", "api-reference"}, entryIDs(c.Catalog(KindSection)))
	require.Equal(t, []string{"overview", "getting-started", "components"}, entryIDs(c.Catalog(KindTopic)))
	require.Nil(t, c.Catalog(Kind("other")))
}

// Random navigation never leaves the selection outside the tree.
func TestNavigateTo_InvariantUnderRandomWalk(t *testing.T) {
	c := newCoordinator(t)
	m := docsManifest()
	rng := rand.New(rand.NewPCG(1, 2))
	values := []string{"v1", "v2", "v9", "user-guide", "contributor-guide", "api-reference",
		"overview", "overview2", "components", "getting-started", "state", "missing"}
	kinds := []Kind{KindVersion, KindSection, KindTopic}

	for range 500 {
		kind := kinds[rng.IntN(len(kinds))]
		value := values[rng.IntN(len(values))]
		sub := ""
		if rng.IntN(3) == 0 {
			sub = values[rng.IntN(len(values))]
		}
		_, _ = c.NavigateTo(context.Background(), kind, value, sub)

		sel := c.Selection()
		roots := m.Topics.Roots(sel.Version, sel.Section)
		require.True(t, topics.Selection{Topic: sel.Topic, SubTopic: sel.SubTopic}.Valid(roots), sel.URL())
	}
}

func TestNavigateTo_ConcurrentCallersSerialize(t *testing.T) {
	c := newCoordinator(t)
	var mu sync.Mutex
	var seen []string
	c.Subscribe(func(_ context.Context, u Update) {
		mu.Lock()
		seen = append(seen, u.Selection.URL())
		mu.Unlock()
	})

	var wg sync.WaitGroup
	var okCount int
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := "v1"
			if i%2 == 0 {
				v = "v2"
			}
			_, err := c.NavigateTo(context.Background(), KindVersion, v, "")
			if err != nil {
				// Callers arriving mid-broadcast are turned away.
				if !errors.Is(err, naverrors.ErrReentrantNavigation) {
					t.Error(err)
				}
				return
			}
			mu.Lock()
			okCount++
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.NotZero(t, okCount)
	require.Len(t, seen, okCount)
	require.Contains(t, []string{"v1/user-guide/overview", "v2/user-guide/overview2"}, c.Selection().URL())
}

func TestNavigateTo_ConcurrentCallersWithoutSubscribers(t *testing.T) {
	c := newCoordinator(t)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := "v1"
			if i%2 == 0 {
				v = "v2"
			}
			if _, err := c.NavigateTo(context.Background(), KindVersion, v, ""); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	require.Contains(t, []string{"v1/user-guide/overview", "v2/user-guide/overview2"}, c.Selection().URL())
}

func ids(nodes []topics.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func entryIDs(entries []catalog.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
