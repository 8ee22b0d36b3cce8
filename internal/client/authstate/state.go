// Package authstate holds the single process-wide authentication state
// container. The session service is its only writer; guards, interceptors
// and UI code observe it through snapshots and subscriptions.
package authstate

import (
	"context"
	"sync"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// Snapshot is an immutable view of the authentication state. The invariant
// Authenticated == (User != nil) holds for every snapshot ever published:
// the container exposes no way to set one without the other.
type Snapshot struct {
	Authenticated bool
	User          *domain.User
	Loading       bool
	Err           string
}

// Container serializes all mutations of the authentication state and stamps
// each in-flight identity check with a generation. Responses that complete
// after a later operation has begun are discarded instead of applied, so a
// stale "session still valid" can never resurrect a logged-out user.
type Container struct {
	mu      sync.Mutex
	snap    Snapshot
	gen     uint64
	settled chan struct{}

	subs    map[int]chan Snapshot
	nextSub int
}

// New returns an anonymous, settled container.
func New() *Container {
	settled := make(chan struct{})
	close(settled)
	return &Container{
		settled: settled,
		subs:    make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current state. The embedded user is a copy.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	s.User = s.User.Clone()
	return s
}

// Generation returns the generation of the most recently started operation.
func (c *Container) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// StartCheck marks an identity check as in flight and returns its
// generation. The returned value must be passed to the matching commit.
func (c *Container) StartCheck() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if !c.snap.Loading {
		c.snap.Loading = true
		c.settled = make(chan struct{})
	}
	c.publishLocked()
	return c.gen
}

// CommitAuthenticated publishes an authenticated state. It reports false,
// leaving the state untouched, when a later operation has superseded gen.
func (c *Container) CommitAuthenticated(gen uint64, user *domain.User) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Superseded: the newer operation owns the loading flag.
		return false
	}
	c.snap.Authenticated = true
	c.snap.User = user.Clone()
	c.snap.Err = ""
	c.settleLocked()
	c.publishLocked()
	return true
}

// CommitAnonymous publishes an anonymous state with an optional error
// message, subject to the same generation guard.
func (c *Container) CommitAnonymous(gen uint64, errMsg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.snap.Authenticated = false
	c.snap.User = nil
	c.snap.Err = errMsg
	c.settleLocked()
	c.publishLocked()
	return true
}

// Settle clears the loading flag without touching identity. Used when a
// check fails for a reason that says nothing about the session (network
// outage, server error), subject to the same generation guard.
func (c *Container) Settle(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.settleLocked()
	c.publishLocked()
	return true
}

// ForceAnonymous clears the state unconditionally and bumps the generation
// so every in-flight check lands in a superseded generation. Logout and
// session-expiry handling go through here.
func (c *Container) ForceAnonymous(errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.snap.Authenticated = false
	c.snap.User = nil
	c.snap.Err = errMsg
	c.settleLocked()
	c.publishLocked()
}

// WaitSettled blocks until no identity check is in flight. Guards call this
// before deciding so they never race a pending check to a premature deny.
func (c *Container) WaitSettled(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.snap.Loading {
			c.mu.Unlock()
			return nil
		}
		ch := c.settled
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Subscribe registers an observer. Delivery is conflated: a slow consumer
// sees the latest snapshot rather than blocking the writer. The cancel
// function must be called to release the subscription.
func (c *Container) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- c.cloneLocked()
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (c *Container) settleLocked() {
	if c.snap.Loading {
		c.snap.Loading = false
		close(c.settled)
	}
}

func (c *Container) cloneLocked() Snapshot {
	s := c.snap
	s.User = s.User.Clone()
	return s
}

func (c *Container) publishLocked() {
	snap := c.cloneLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale value the consumer never read, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
