// Package spend implements the transaction preparation and broadcast
// pipeline for Cobalt wallets.
//
// A Session ties a wallet account engine, a blockchain broadcaster, and an
// invoice store together behind a draft registry. Drafts move through a
// small state machine: built, optionally previewed, signed, broadcast, and
// finally sent or failed. Selection, fee estimation, and assembly are
// synchronous; signing and broadcast run on a bounded worker pool with
// completion callbacks, so the caller's control thread never blocks on
// crypto or network I/O.
package spend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cobaltwallet/libcobalt-go/config"
	"github.com/cobaltwallet/libcobalt-go/network"
	"github.com/cobaltwallet/libcobalt-go/payreq"
)

// SessionParams wires a spending session's collaborators.
type SessionParams struct {
	// Engine is the wallet-side account engine. Required.
	Engine AccountEngine

	// Chain broadcasts transactions to the network. Nil leaves the session
	// offline: payment requests still deliver, plain sends fail with
	// ErrOffline.
	Chain network.Broadcaster

	// Invoices persists invoice records for payment requests. Optional.
	// The store is the caller's to close.
	Invoices *payreq.Store

	// Payee overrides the endpoint payments are delivered to. Nil posts
	// each payment to its request's payment URL over HTTP.
	Payee payreq.Endpoint

	// Config is the settings snapshot the session works from. Nil uses
	// config.DefaultConfig().
	Config *config.Config

	// Pool runs sign and broadcast tasks. Nil creates a pool sized from
	// the config's Workers setting; the session then owns and stops it.
	// A supplied pool is shared and the caller's to stop.
	Pool *Pool
}

// Session is one wallet spending context: an account reference, a
// configuration snapshot, and the registry of open drafts. All methods are
// safe for concurrent use, though the intended shape is a single control
// goroutine driving the pipeline and worker callbacks reporting back to it.
type Session struct {
	mu     sync.Mutex
	closed bool

	engine   AccountEngine
	chain    network.Broadcaster
	invoices *payreq.Store
	payee    payreq.Endpoint
	cfg      config.Config
	pool     *Pool
	ownPool  bool
	events   *Bus

	drafts map[uint64]*Draft
	nextID uint64
}

// NewSession creates a session over the given collaborators and starts its
// worker pool.
func NewSession(p *SessionParams) (*Session, error) {
	if p == nil || p.Engine == nil {
		return nil, fmt.Errorf("%w: account engine", ErrNilParam)
	}

	cfg := config.DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}

	pool := p.Pool
	ownPool := false
	if pool == nil {
		pool = NewPool(cfg.Workers)
		ownPool = true
	}
	pool.Start()

	return &Session{
		engine:   p.Engine,
		chain:    p.Chain,
		invoices: p.Invoices,
		payee:    p.Payee,
		cfg:      cfg,
		pool:     pool,
		ownPool:  ownPool,
		events:   NewBus(),
		drafts:   make(map[uint64]*Draft),
	}, nil
}

// Close marks the session dead and, when the session owns its pool, stops
// the pool. Stopping drains queued tasks, so Close returns only once every
// accepted sign and broadcast task has run; their callbacks observe the
// closed session and skip wallet and invoice updates.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ownPool := s.ownPool
	s.mu.Unlock()

	if ownPool {
		s.pool.Stop()
	}
	return nil
}

// Alive reports whether the session still accepts pipeline operations.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Events returns the session's event bus.
func (s *Session) Events() *Bus { return s.events }

// Config returns the session's settings snapshot.
func (s *Session) Config() config.Config { return s.cfg }

// Draft looks up an open draft by id.
func (s *Session) Draft(id uint64) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDraftNotFound, id)
	}
	return d, nil
}

// OpenDrafts returns the ids of all registered drafts in ascending order.
func (s *Session) OpenDrafts() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint64, 0, len(s.drafts))
	for id := range s.drafts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DiscardDraft removes a draft from the registry, abandoning it in
// whatever state it is in. Tasks already in flight for the draft run to
// completion and their callbacks still fire.
func (s *Session) DiscardDraft(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[id]; !ok {
		return fmt.Errorf("%w: %d", ErrDraftNotFound, id)
	}
	delete(s.drafts, id)
	return nil
}

// register assigns the draft an id and adds it to the registry.
func (s *Session) register(d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.nextID++
	d.id = s.nextID
	s.drafts[d.id] = d
	return nil
}

// publish delivers an event while the session is alive. Late events from
// draining workers after Close are dropped and logged.
func (s *Session) publish(evt Event) {
	if !s.Alive() {
		log.Debugf("session closed, dropping %s event for draft %d",
			evt.Type, evt.DraftID)
		return
	}
	s.events.Publish(evt)
}
