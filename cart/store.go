package cart

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the single in-memory source of truth for the visible cart.
//
// Every operation settles against the active repository before the next
// is accepted: the mutex serializes mutations with each other and with
// the login reconciliation pass, so a rapid second click waits for the
// server's answer to the first instead of racing it.
type Store struct {
	mu      sync.Mutex
	log     logrus.FieldLogger
	repo    Repository
	local   *LocalRepository
	remote  *RemoteRepository
	current Cart
	subs    []func(Cart)
}

// NewStore starts on the guest path with whatever the on-device record
// holds (already validated by the cache).
func NewStore(log logrus.FieldLogger, local *LocalRepository, remote *RemoteRepository) *Store {
	s := &Store{log: log, local: local, remote: remote, repo: local}
	s.current, _ = local.Load(context.Background())
	return s
}

// Subscribe registers an observer invoked with a snapshot after every
// settled change. Observers must not call back into the store.
func (s *Store) Subscribe(fn func(Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Count recomputes the badge count from the current line set on every
// call; it never reads a stored aggregate.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Count()
}

// AddLine increments the product's quantity by one, creating the line
// at quantity 1 if absent.
func (s *Store) AddLine(ctx context.Context, productID string, unitPrice decimal.Decimal) (Cart, error) {
	return s.mutate(ctx, "add line", func(ctx context.Context) (Cart, error) {
		return s.repo.Add(ctx, productID, unitPrice)
	})
}

// RemoveLine decrements the product's quantity by one; at zero the line
// is deleted.
func (s *Store) RemoveLine(ctx context.Context, productID string) (Cart, error) {
	return s.mutate(ctx, "remove line", func(ctx context.Context) (Cart, error) {
		return s.repo.Decrement(ctx, productID)
	})
}

// DeleteLine removes the line regardless of quantity.
func (s *Store) DeleteLine(ctx context.Context, productID string) (Cart, error) {
	return s.mutate(ctx, "delete line", func(ctx context.Context) (Cart, error) {
		return s.repo.Delete(ctx, productID)
	})
}

func (s *Store) Clear(ctx context.Context) (Cart, error) {
	return s.mutate(ctx, "clear cart", func(ctx context.Context) (Cart, error) {
		return s.repo.Clear(ctx)
	})
}

// mutate runs one repository operation under the lock. On failure the
// current cart is left as last-known-good and returned alongside the
// error; nothing is reverted silently.
func (s *Store) mutate(ctx context.Context, op string, fn func(context.Context) (Cart, error)) (Cart, error) {
	s.mu.Lock()
	updated, err := fn(ctx)
	if err != nil {
		last := s.current.clone()
		s.mu.Unlock()
		return last, errors.Wrap(err, op)
	}
	s.current = updated
	snapshot := updated.clone()
	subs := append([]func(Cart){}, s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
	return snapshot, nil
}

// HandleLogin swaps persistence to the remote store and folds the guest
// cart into it. It must be called exactly once, on a real
// anonymous-to-authenticated transition: the current lines are a guest
// cart at that moment and nothing else, so merging them is safe. Any
// other path back onto the remote store (process restart, a repeat
// login, a switch to a different account) goes through Resume, because
// there the current lines are a mirror of a server cart and re-merging
// them would double it.
//
// A mutation issued while the sync is in flight queues on the lock and
// settles against the reconciled cart.
//
// On failure the guest cart and repository are kept exactly as they
// were: the cart keeps working in guest mode and the sync is retried on
// the next transition (or next process start), never silently in the
// background.
func (s *Store) HandleLogin(ctx context.Context) error {
	return s.settleRemote(ctx, "cart sync", func(ctx context.Context, current Cart) (Cart, error) {
		if !current.IsEmpty() {
			return s.remote.Sync(ctx, current)
		}
		return s.remote.Load(ctx)
	})
}

// Resume re-enters the authenticated path without merging: the server
// cart is fetched and adopted wholesale, and whatever the store held
// (typically the on-device mirror from a previous run) is discarded in
// its favor. On failure the previous repository and cart are kept.
func (s *Store) Resume(ctx context.Context) error {
	return s.settleRemote(ctx, "cart resume", func(ctx context.Context, _ Cart) (Cart, error) {
		return s.remote.Load(ctx)
	})
}

func (s *Store) settleRemote(ctx context.Context, op string, fn func(context.Context, Cart) (Cart, error)) error {
	s.mu.Lock()
	settled, err := fn(ctx, s.current)
	if err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, op)
	}
	s.repo = s.remote
	s.current = settled
	snapshot := settled.clone()
	subs := append([]func(Cart){}, s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
	s.log.WithField("lines", len(snapshot.Lines)).Info("cart reconciled with remote store")
	return nil
}

// HandleLogout discards the authenticated mirror and returns to an
// empty guest cart. The server cart is never pushed into anonymous
// storage.
func (s *Store) HandleLogout(ctx context.Context) {
	s.mu.Lock()
	s.repo = s.local
	if _, err := s.local.Clear(ctx); err != nil {
		// LocalRepository never errors; kept for interface symmetry.
		s.log.WithField("error", err).Warn("discarding cart mirror failed")
	}
	s.current = Cart{}
	subs := append([]func(Cart){}, s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(Cart{})
	}
	s.log.Debug("cart returned to guest mode")
}
