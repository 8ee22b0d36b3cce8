package authstate

import (
	"context"
	"testing"
	"time"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

func testUser(id int64, roles ...string) *domain.User {
	return &domain.User{
		ID:       id,
		Username: "alice",
		Roles:    roles,
	}
}

func TestContainer_InitialState(t *testing.T) {
	c := New()
	snap := c.Snapshot()
	if snap.Authenticated {
		t.Fatalf("fresh container must be anonymous")
	}
	if snap.User != nil {
		t.Fatalf("fresh container must hold no user")
	}
	if snap.Loading {
		t.Fatalf("fresh container must be settled")
	}
}

func TestContainer_CommitAuthenticated(t *testing.T) {
	c := New()
	gen := c.StartCheck()

	if !c.Snapshot().Loading {
		t.Fatalf("expected loading during in-flight check")
	}
	if !c.CommitAuthenticated(gen, testUser(7, domain.RoleUser)) {
		t.Fatalf("commit with current generation must apply")
	}

	snap := c.Snapshot()
	if !snap.Authenticated || snap.User == nil || snap.User.ID != 7 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Loading {
		t.Fatalf("commit must settle the loading flag")
	}
	if snap.Err != "" {
		t.Fatalf("successful commit must clear the error, got %q", snap.Err)
	}
}

// The authenticated flag and the user must flip together, in every
// reachable state.
func TestContainer_AuthenticatedImpliesUser(t *testing.T) {
	c := New()
	gen := c.StartCheck()
	c.CommitAuthenticated(gen, testUser(1))

	check := func() {
		snap := c.Snapshot()
		if snap.Authenticated != (snap.User != nil) {
			t.Fatalf("invariant violated: authenticated=%v user=%v", snap.Authenticated, snap.User)
		}
	}
	check()

	gen = c.StartCheck()
	c.CommitAnonymous(gen, "session expired")
	check()

	gen = c.StartCheck()
	c.CommitAuthenticated(gen, testUser(2))
	c.ForceAnonymous("")
	check()
}

// A response from a superseded generation must never overwrite state
// produced by a later operation, even when it arrives after.
func TestContainer_StaleCommitDiscarded(t *testing.T) {
	c := New()

	staleGen := c.StartCheck()
	c.ForceAnonymous("") // logout wins the race

	if c.CommitAuthenticated(staleGen, testUser(7)) {
		t.Fatalf("stale commit must be discarded")
	}

	snap := c.Snapshot()
	if snap.Authenticated || snap.User != nil {
		t.Fatalf("stale response resurrected the user: %+v", snap)
	}
}

func TestContainer_NewerCheckSupersedesOlder(t *testing.T) {
	c := New()

	older := c.StartCheck()
	newer := c.StartCheck()

	if !c.CommitAuthenticated(newer, testUser(2)) {
		t.Fatalf("newer commit must apply")
	}
	if c.CommitAuthenticated(older, testUser(1)) {
		t.Fatalf("older commit must be discarded")
	}
	if got := c.Snapshot().User.ID; got != 2 {
		t.Fatalf("expected user 2 to win, got %d", got)
	}
}

func TestContainer_SettleKeepsIdentity(t *testing.T) {
	c := New()
	gen := c.StartCheck()
	c.CommitAuthenticated(gen, testUser(7))

	gen = c.StartCheck()
	if !c.Settle(gen) {
		t.Fatalf("settle with current generation must apply")
	}

	snap := c.Snapshot()
	if snap.Loading {
		t.Fatalf("settle must clear loading")
	}
	if !snap.Authenticated || snap.User == nil || snap.User.ID != 7 {
		t.Fatalf("settle must not touch identity: %+v", snap)
	}
}

func TestContainer_WaitSettled(t *testing.T) {
	c := New()
	gen := c.StartCheck()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.WaitSettled(context.Background()); err != nil {
			t.Errorf("WaitSettled: %v", err)
		}
	}()

	select {
	case <-done:
		t.Fatalf("WaitSettled returned while a check was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	c.CommitAnonymous(gen, "")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WaitSettled did not return after the check settled")
	}
}

func TestContainer_WaitSettledHonorsContext(t *testing.T) {
	c := New()
	c.StartCheck()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := c.WaitSettled(ctx); err == nil {
		t.Fatalf("expected context error while check is in flight")
	}
}

func TestContainer_SubscribeDeliversLatest(t *testing.T) {
	c := New()
	ch, cancel := c.Subscribe()
	defer cancel()

	// The current snapshot is delivered immediately.
	select {
	case snap := <-ch:
		if snap.Authenticated {
			t.Fatalf("expected initial anonymous snapshot")
		}
	case <-time.After(time.Second):
		t.Fatalf("no initial snapshot delivered")
	}

	gen := c.StartCheck()
	c.CommitAuthenticated(gen, testUser(7))

	// The slow consumer sees the newest value, not the loading interim.
	var last Snapshot
	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-ch:
			last = snap
			if last.Authenticated {
				if last.User.ID != 7 {
					t.Fatalf("unexpected user: %+v", last.User)
				}
				return
			}
		case <-deadline:
			t.Fatalf("never observed the authenticated snapshot, last %+v", last)
		}
	}
}

func TestContainer_SubscriberCannotMutateState(t *testing.T) {
	c := New()
	gen := c.StartCheck()
	c.CommitAuthenticated(gen, testUser(7, domain.RoleUser))

	snap := c.Snapshot()
	snap.User.Roles[0] = domain.RoleAdmin

	if c.Snapshot().User.Roles[0] != domain.RoleUser {
		t.Fatalf("published snapshot shares memory with container state")
	}
}
