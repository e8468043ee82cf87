package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/relay/internal/protocol"
)

// fakeFetcher serves canned cards keyed by address.
type fakeFetcher struct {
	cards map[string]*protocol.AgentCard
}

func (f *fakeFetcher) FetchCard(_ context.Context, baseURL string) (*protocol.AgentCard, error) {
	card, ok := f.cards[baseURL]
	if !ok {
		return nil, errors.New("unreachable")
	}
	return card, nil
}

func card(name, skillID string) *protocol.AgentCard {
	return &protocol.AgentCard{
		Name:   name,
		Skills: []protocol.AgentSkill{{ID: skillID, Name: name}},
	}
}

func TestDiscover_OmitsFailuresWithoutAborting(t *testing.T) {
	f := &fakeFetcher{cards: map[string]*protocol.AgentCard{
		"http://calc":    card("Calculator Agent", "calculator"),
		"http://dataset": card("Structured Data Agent", "structured-query"),
	}}
	r := New(f, nil)
	r.Discover(context.Background(), []string{"http://calc", "http://down", "http://dataset"})

	if r.Count() != 2 {
		t.Fatalf("Count = %d, want 2", r.Count())
	}
	all := r.All()
	if all[0].Card.Name != "Calculator Agent" || all[1].Card.Name != "Structured Data Agent" {
		t.Errorf("discovery order not preserved: %q, %q", all[0].Card.Name, all[1].Card.Name)
	}
}

func TestDiscover_ClosesReadyBarrier(t *testing.T) {
	r := New(&fakeFetcher{}, nil)

	select {
	case <-r.Ready():
		t.Fatal("Ready should not be closed before discovery")
	default:
	}

	r.Discover(context.Background(), nil)

	select {
	case <-r.Ready():
	case <-time.After(time.Second):
		t.Fatal("Ready not closed after discovery")
	}
	if err := r.Wait(context.Background()); err != nil {
		t.Errorf("Wait after discovery: %v", err)
	}
}

func TestWait_RespectsContext(t *testing.T) {
	r := New(&fakeFetcher{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want deadline exceeded", err)
	}
}

func TestFind_NameSubstringAndSkillID(t *testing.T) {
	f := &fakeFetcher{cards: map[string]*protocol.AgentCard{
		"http://weather": card("Weather Agent", "weather"),
		"http://dataset": card("Structured Data Agent", "structured-query"),
	}}
	r := New(f, nil)
	r.Discover(context.Background(), []string{"http://weather", "http://dataset"})

	if sp := r.Find("weather"); sp == nil || sp.Card.Name != "Weather Agent" {
		t.Errorf("Find(weather) = %v, want Weather Agent", sp)
	}
	// Exact skill-id match; the name contains no such substring.
	if sp := r.Find("structured-query"); sp == nil || sp.Card.Name != "Structured Data Agent" {
		t.Errorf("Find(structured-query) = %v, want Structured Data Agent", sp)
	}
	if sp := r.Find("calculator"); sp != nil {
		t.Errorf("Find(calculator) = %v, want nil", sp)
	}
}

func TestFind_FirstMatchWinsByDiscoveryOrder(t *testing.T) {
	f := &fakeFetcher{cards: map[string]*protocol.AgentCard{
		"http://a": card("Weather Agent A", "weather"),
		"http://b": card("Weather Agent B", "weather"),
	}}
	r := New(f, nil)
	r.Discover(context.Background(), []string{"http://a", "http://b"})

	if sp := r.Find("weather"); sp == nil || sp.Card.Name != "Weather Agent A" {
		t.Errorf("Find should return the first specialist in discovery order, got %v", sp)
	}
}
