// Package navigation owns the active version/section/topic selection. All
// changes go through Coordinator, which validates a target, commits it
// atomically, notifies subscribers and returns the URL of the new location.
package navigation

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgallion1/docnav/internal/catalog"
	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/topics"
)

// Options configures a Coordinator.
type Options struct {
	// InitialURL, when set, selects the location it names instead of the
	// manifest defaults.
	InitialURL string
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}

// Coordinator is safe for concurrent use. navMu serializes the whole
// validate, commit and broadcast sequence; mu guards the state it commits.
type Coordinator struct {
	navMu sync.Mutex

	mu       sync.RWMutex
	versions *catalog.Catalog
	sections *catalog.Catalog
	tree     topics.Tree
	defaults topics.Defaults
	// The active version and section live in the catalogs.
	topic   topics.Selection
	visible []topics.Node

	subMu     sync.Mutex
	subs      []subscription
	nextSubID uint64

	broadcasting atomic.Bool

	rec metrics.Recorder
	log *slog.Logger
}

// NewCoordinator builds a coordinator over m, starting at opts.InitialURL or
// the manifest defaults.
func NewCoordinator(m *topics.Manifest, opts Options) (*Coordinator, error) {
	c := &Coordinator{
		rec: opts.Recorder,
		log: opts.Logger,
	}
	if c.rec == nil {
		c.rec = metrics.NoopRecorder{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}

	versions, sections, err := m.Catalogs()
	if err != nil {
		return nil, err
	}
	c.versions, c.sections, c.tree, c.defaults = versions, sections, m.Topics, m.Defaults

	var sel Selection
	if opts.InitialURL != "" {
		want, err := ParseURL(opts.InitialURL)
		if err != nil {
			return nil, err
		}
		sel, err = c.resolveFull(want)
		if err != nil {
			return nil, err
		}
	} else {
		sel, err = c.defaultSelection()
		if err != nil {
			return nil, err
		}
	}
	if err := c.commitLocked(sel); err != nil {
		return nil, err
	}
	return c, nil
}

// NavigateTo moves to value at the given level and returns the URL of the
// resulting location. subValue is only used for KindTopic; empty means
// omitted. On error the selection is unchanged.
func (c *Coordinator) NavigateTo(ctx context.Context, kind Kind, value, subValue string) (string, error) {
	if c.inBroadcast(ctx) {
		c.rec.IncNavigation(string(kind), string(naverrors.KindReentrantNavigation))
		return "", naverrors.ReentrantNavigation()
	}

	c.navMu.Lock()
	defer c.navMu.Unlock()

	c.mu.RLock()
	next, err := c.plan(kind, value, subValue)
	c.mu.RUnlock()
	if err != nil {
		c.rec.IncNavigation(string(kind), string(naverrors.GetKind(err)))
		c.log.Debug("navigation rejected",
			logfields.Kind(string(kind)), "value", value, logfields.Error(err))
		return "", err
	}

	visible, err := c.commit(next)
	if err != nil {
		c.rec.IncNavigation(string(kind), string(naverrors.GetKind(err)))
		return "", err
	}
	c.broadcast(ctx, next, visible)

	url := next.URL()
	c.rec.IncNavigation(string(kind), metrics.ResultOK)
	c.log.Debug("navigated", logfields.Kind(string(kind)), logfields.URL(url))
	return url, nil
}

// Restore commits a full selection, typically parsed from a deep link. An
// omitted sub-topic on a topic with children selects its first child.
func (c *Coordinator) Restore(ctx context.Context, want Selection) (string, error) {
	if c.inBroadcast(ctx) {
		return "", naverrors.ReentrantNavigation()
	}

	c.navMu.Lock()
	defer c.navMu.Unlock()

	c.mu.RLock()
	next, err := c.resolveFull(want)
	c.mu.RUnlock()
	if err != nil {
		return "", err
	}

	visible, err := c.commit(next)
	if err != nil {
		return "", err
	}
	c.broadcast(ctx, next, visible)
	return next.URL(), nil
}

// RestoreURL parses raw and restores the selection it names.
func (c *Coordinator) RestoreURL(ctx context.Context, raw string) (string, error) {
	want, err := ParseURL(raw)
	if err != nil {
		return "", err
	}
	return c.Restore(ctx, want)
}

// Reload swaps in a new manifest. The current selection is kept when it is
// still valid, otherwise the manifest defaults apply.
func (c *Coordinator) Reload(ctx context.Context, m *topics.Manifest) error {
	if c.inBroadcast(ctx) {
		return naverrors.ReentrantNavigation()
	}
	versions, sections, err := m.Catalogs()
	if err != nil {
		return err
	}

	c.navMu.Lock()
	defer c.navMu.Unlock()

	staged := &Coordinator{versions: versions, sections: sections, tree: m.Topics, defaults: m.Defaults}
	c.mu.RLock()
	cur := c.current()
	c.mu.RUnlock()

	next := cur
	if !staged.valid(cur) {
		next, err = staged.defaultSelection()
		if err != nil {
			return err
		}
		c.log.Info("selection reset after reload",
			logfields.URL(cur.URL()), "new_url", next.URL())
	}

	if err := staged.commitLocked(next); err != nil {
		return err
	}

	c.mu.Lock()
	c.versions, c.sections, c.tree, c.defaults = staged.versions, staged.sections, staged.tree, staged.defaults
	c.topic, c.visible = staged.topic, staged.visible
	visible := c.visible
	c.mu.Unlock()

	c.broadcast(ctx, next, visible)
	return nil
}

// Selection returns a copy of the active selection.
func (c *Coordinator) Selection() Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current()
}

// current composes the selection from the catalogs. Callers hold mu.
func (c *Coordinator) current() Selection {
	return Selection{
		Version:  c.versions.Active(),
		Section:  c.sections.Active(),
		Topic:    c.topic.Topic,
		SubTopic: c.topic.SubTopic,
	}
}

// VisibleTopics returns a copy of the root topics for the active
// version/section.
func (c *Coordinator) VisibleTopics() []topics.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return topics.Clone(c.visible)
}

// Catalog lists the entries for kind. KindTopic lists the visible roots.
func (c *Coordinator) Catalog(kind Kind) []catalog.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch kind {
	case KindVersion:
		return c.versions.Entries()
	case KindSection:
		return c.sections.Entries()
	case KindTopic:
		out := make([]catalog.Entry, len(c.visible))
		for i, n := range c.visible {
			out[i] = catalog.Entry{ID: n.ID, Label: n.Label}
		}
		return out
	default:
		return nil
	}
}

// plan computes the selection a navigation would produce. Callers hold mu.
func (c *Coordinator) plan(kind Kind, value, subValue string) (Selection, error) {
	cur := c.current()
	switch kind {
	case KindVersion:
		if !c.versions.Contains(value) {
			return Selection{}, naverrors.UnknownCatalogEntry(c.versions.Name(), value)
		}
		return c.firstFor(value, cur.Section)
	case KindSection:
		if !c.sections.Contains(value) {
			return Selection{}, naverrors.UnknownCatalogEntry(c.sections.Name(), value)
		}
		return c.firstFor(cur.Version, value)
	case KindTopic:
		ts, err := topics.Resolve(c.visible, value, subValue)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Version: cur.Version, Section: cur.Section, Topic: ts.Topic, SubTopic: ts.SubTopic}, nil
	default:
		return Selection{}, naverrors.UnknownCatalogEntry("kind", string(kind))
	}
}

// firstFor selects the first topic of a pair, cascading into its first child.
func (c *Coordinator) firstFor(version, section string) (Selection, error) {
	ts, ok := topics.First(c.tree.Roots(version, section))
	if !ok {
		return Selection{}, naverrors.NoContentForSelection(version, section)
	}
	return Selection{Version: version, Section: section, Topic: ts.Topic, SubTopic: ts.SubTopic}, nil
}

func (c *Coordinator) resolveFull(want Selection) (Selection, error) {
	if !c.versions.Contains(want.Version) {
		return Selection{}, naverrors.UnknownCatalogEntry(c.versions.Name(), want.Version)
	}
	if !c.sections.Contains(want.Section) {
		return Selection{}, naverrors.UnknownCatalogEntry(c.sections.Name(), want.Section)
	}
	roots := c.tree.Roots(want.Version, want.Section)
	if len(roots) == 0 {
		return Selection{}, naverrors.NoContentForSelection(want.Version, want.Section)
	}
	ts, err := topics.Resolve(roots, want.Topic, want.SubTopic)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Version: want.Version, Section: want.Section, Topic: ts.Topic, SubTopic: ts.SubTopic}, nil
}

func (c *Coordinator) valid(sel Selection) bool {
	if !c.versions.Contains(sel.Version) || !c.sections.Contains(sel.Section) {
		return false
	}
	return topics.Selection{Topic: sel.Topic, SubTopic: sel.SubTopic}.Valid(c.tree.Roots(sel.Version, sel.Section))
}

// defaultSelection honors the manifest defaults and otherwise takes the
// first version/section pair, in declared order, that has content.
func (c *Coordinator) defaultSelection() (Selection, error) {
	d := c.defaults
	if d.Version != "" && d.Section != "" && d.Topic != "" {
		return c.resolveFull(Selection{Version: d.Version, Section: d.Section, Topic: d.Topic})
	}
	for _, v := range c.versions.Entries() {
		if d.Version != "" && v.ID != d.Version {
			continue
		}
		for _, s := range c.sections.Entries() {
			if d.Section != "" && s.ID != d.Section {
				continue
			}
			if sel, err := c.firstFor(v.ID, s.ID); err == nil {
				return sel, nil
			}
		}
	}
	return Selection{}, naverrors.NoContentForSelection(d.Version, d.Section)
}

// commit applies a validated selection and returns the visible roots.
func (c *Coordinator) commit(next Selection) ([]topics.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.commitLocked(next); err != nil {
		return nil, err
	}
	return c.visible, nil
}

// commitLocked moves the catalogs and the topic selection to next. The
// section is checked first so a failure leaves both catalogs untouched.
func (c *Coordinator) commitLocked(next Selection) error {
	if !c.sections.Contains(next.Section) {
		return naverrors.UnknownCatalogEntry(c.sections.Name(), next.Section)
	}
	moved := next.Version != c.versions.Active() || next.Section != c.sections.Active()
	if err := c.versions.SetActive(next.Version); err != nil {
		return err
	}
	if err := c.sections.SetActive(next.Section); err != nil {
		return err
	}
	if moved || c.visible == nil {
		c.visible = c.tree.Roots(next.Version, next.Section)
	}
	c.topic = topics.Selection{Topic: next.Topic, SubTopic: next.SubTopic}
	return nil
}
