package syncer

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Manager hands out one running Synchronizer per owner. Synchronizers are
// created lazily on first use and stopped together when the manager closes.
type Manager struct {
	ledger   Ledger
	notifier Notifier
	opts     Options

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	byOwner map[uuid.UUID]*Synchronizer
}

// NewManager creates a Manager whose synchronizers run until Close.
func NewManager(ledger Ledger, notifier Notifier, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ledger:   ledger,
		notifier: notifier,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		byOwner:  make(map[uuid.UUID]*Synchronizer),
	}
}

// For returns the owner's synchronizer, starting one if needed.
func (m *Manager) For(ownerID uuid.UUID) *Synchronizer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byOwner[ownerID]; ok {
		return s
	}

	s := New(m.ledger, m.notifier, ownerID, m.opts)
	m.byOwner[ownerID] = s
	go s.Run(m.ctx)
	return s
}

// Wake nudges the owner's synchronizer to reconcile soon.
func (m *Manager) Wake(ownerID uuid.UUID) {
	m.For(ownerID).Notify()
}

// Close stops all synchronizers.
func (m *Manager) Close() {
	m.cancel()
}
