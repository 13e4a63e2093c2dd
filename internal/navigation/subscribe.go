package navigation

import (
	"context"
	"sync"

	"github.com/dgallion1/docnav/internal/topics"
)

// Update is delivered to subscribers after every committed change.
type Update struct {
	Selection Selection
	Topics    []topics.Node
}

// Subscriber receives updates synchronously. Any NavigateTo, Restore or
// Reload made while subscribers run fails with ReentrantNavigation, whatever
// context it is given.
type Subscriber func(ctx context.Context, u Update)

type subscription struct {
	id uint64
	fn Subscriber
}

type broadcastKey struct{}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (c *Coordinator) Subscribe(fn Subscriber) (unsubscribe func()) {
	c.subMu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Coordinator) unsubscribe(id uint64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// broadcast delivers u to the subscribers registered at call time, in
// subscription order, on the calling goroutine.
func (c *Coordinator) broadcast(ctx context.Context, sel Selection, visible []topics.Node) {
	c.subMu.Lock()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	c.broadcasting.Store(true)
	defer c.broadcasting.Store(false)

	bctx := context.WithValue(ctx, broadcastKey{}, c)
	for _, s := range subs {
		s.fn(bctx, Update{Selection: sel, Topics: topics.Clone(visible)})
	}
}

// inBroadcast reports whether a broadcast is running. It is checked before
// navMu is taken because the broadcasting call still holds it.
func (c *Coordinator) inBroadcast(ctx context.Context) bool {
	if c.broadcasting.Load() {
		return true
	}
	owner, _ := ctx.Value(broadcastKey{}).(*Coordinator)
	return owner == c
}
