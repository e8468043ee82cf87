// Package registry discovers the available specialist services at startup
// and holds a live handle to each for the orchestrator's lifetime.
package registry

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// DiscoveryTimeout bounds a single capability-descriptor fetch.
const DiscoveryTimeout = 10 * time.Second

// CardFetcher retrieves an agent's capability descriptor.
type CardFetcher interface {
	FetchCard(ctx context.Context, baseURL string) (*protocol.AgentCard, error)
}

// Specialist is a discovered specialist service: its descriptor and base
// address. The descriptor is treated as immutable after discovery; there is
// no live refresh.
type Specialist struct {
	Card protocol.AgentCard
	URL  string
}

// Registry holds the specialists discovered at startup. Discovery runs once;
// all turn handlers wait on the Ready barrier before using the registry so
// concurrent early turns share the single discovery pass.
type Registry struct {
	fetcher CardFetcher
	logger  *slog.Logger

	mu          sync.RWMutex
	specialists []*Specialist

	ready chan struct{}
	once  sync.Once
}

// New creates a Registry that fetches descriptors through fetcher.
func New(fetcher CardFetcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		fetcher: fetcher,
		logger:  logger.With("component", "registry"),
		ready:   make(chan struct{}),
	}
}

// Discover fetches the capability descriptor of every address concurrently
// and registers the reachable ones in address order. A failed fetch
// (timeout, non-2xx, malformed body) logs and omits that specialist; it
// never aborts startup. Discover closes the Ready barrier exactly once, even
// when called with no addresses.
func (r *Registry) Discover(ctx context.Context, addresses []string) {
	defer r.once.Do(func() { close(r.ready) })

	found := make([]*Specialist, len(addresses))
	var wg sync.WaitGroup
	for i, addr := range addresses {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, DiscoveryTimeout)
			defer cancel()
			card, err := r.fetcher.FetchCard(fetchCtx, addr)
			if err != nil {
				r.logger.Warn("specialist discovery failed, omitting",
					"address", addr, "error", err)
				return
			}
			found[i] = &Specialist{Card: *card, URL: addr}
			r.logger.Info("specialist registered",
				"name", card.Name, "address", addr, "skills", len(card.Skills))
		}(i, addr)
	}
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sp := range found {
		if sp != nil {
			r.specialists = append(r.specialists, sp)
		}
	}
}

// Ready returns a channel closed once discovery has completed.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// Wait blocks until discovery completes or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Find returns the first specialist matching intent, by case-insensitive
// substring of the specialist's name or by exact skill-id match. Matching
// order is discovery order; nil if nothing matches.
func (r *Registry) Find(intent string) *Specialist {
	needle := strings.ToLower(intent)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sp := range r.specialists {
		if strings.Contains(strings.ToLower(sp.Card.Name), needle) {
			return sp
		}
		for _, skill := range sp.Card.Skills {
			if skill.ID == intent {
				return sp
			}
		}
	}
	return nil
}

// All returns the registered specialists in discovery order.
func (r *Registry) All() []*Specialist {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Specialist(nil), r.specialists...)
}

// Count returns the number of registered specialists.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specialists)
}
