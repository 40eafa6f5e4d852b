package ports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseRequirement(t *testing.T) {
	cases := []struct {
		in      string
		want    Requirement
		wantErr bool
	}{
		{in: "80/tcp", want: Requirement{Port: 80, Proto: "tcp"}},
		{in: "53/udp", want: Requirement{Port: 53, Proto: "udp"}},
		{in: "8080", want: Requirement{Port: 8080, Proto: "tcp"}},
		{in: " 443/tcp ", want: Requirement{Port: 443, Proto: "tcp"}},
		{in: "80/icmp", wantErr: true},
		{in: "notaport/tcp", wantErr: true},
		{in: "0/tcp", wantErr: true},
		{in: "70000/tcp", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseRequirement(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseRequirement(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRequirement(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRequirement(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAllocateWithinRange(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryRegistry(), testLogger())

	reqs := []Requirement{{Port: 80, Proto: "tcp"}}
	for range 200 {
		reservations, err := alloc.Allocate(ctx, reqs)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		port := reservations[0].HostPort
		if port < RangeStart || port >= RangeEnd {
			t.Fatalf("Assigned port %d outside [%d, %d)", port, RangeStart, RangeEnd)
		}
	}
}

func TestAllocateAvoidsUsedPorts(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()

	// Leave only three free ports in the whole range.
	free := map[int]struct{}{30017: {}, 45000: {}, 59999: {}}
	blocked := make([]int, 0, RangeEnd-RangeStart)
	for p := RangeStart; p < RangeEnd; p++ {
		if _, ok := free[p]; !ok {
			blocked = append(blocked, p)
		}
	}
	if err := registry.Add(ctx, blocked...); err != nil {
		t.Fatalf("Failed to seed registry: %v", err)
	}

	alloc := NewAllocator(registry, testLogger())
	reservations, err := alloc.Allocate(ctx, []Requirement{
		{Port: 80, Proto: "tcp"},
		{Port: 443, Proto: "tcp"},
		{Port: 53, Proto: "udp"},
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	seen := make(map[int]struct{})
	for _, res := range reservations {
		if _, ok := free[res.HostPort]; !ok {
			t.Fatalf("Assigned port %d was already in the registry", res.HostPort)
		}
		if _, dup := seen[res.HostPort]; dup {
			t.Fatalf("Port %d assigned twice in one call", res.HostPort)
		}
		seen[res.HostPort] = struct{}{}
	}
}

func TestAllocateSharesNamespaceAcrossProtocols(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryRegistry(), testLogger())

	reservations, err := alloc.Allocate(ctx, []Requirement{
		{Port: 53, Proto: "tcp"},
		{Port: 53, Proto: "udp"},
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(reservations) != 2 {
		t.Fatalf("Expected 2 reservations, got %d", len(reservations))
	}
	if reservations[0].HostPort == reservations[1].HostPort {
		t.Fatalf("tcp and udp requirements share host port %d", reservations[0].HostPort)
	}
}

func TestAllocatePoolExhausted(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()

	all := make([]int, 0, RangeEnd-RangeStart)
	for p := RangeStart; p < RangeEnd; p++ {
		all = append(all, p)
	}
	if err := registry.Add(ctx, all...); err != nil {
		t.Fatalf("Failed to seed registry: %v", err)
	}

	alloc := NewAllocator(registry, testLogger())
	if _, err := alloc.Allocate(ctx, []Requirement{{Port: 80, Proto: "tcp"}}); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("Expected %v, got %v", ErrPoolExhausted, err)
	}
}

func TestAllocateReleasesPartialClaimsOnExhaustion(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()

	// One free port, two requirements: the second must exhaust the pool and
	// the first claim must be handed back.
	blocked := make([]int, 0, RangeEnd-RangeStart)
	for p := RangeStart + 1; p < RangeEnd; p++ {
		blocked = append(blocked, p)
	}
	if err := registry.Add(ctx, blocked...); err != nil {
		t.Fatalf("Failed to seed registry: %v", err)
	}

	alloc := NewAllocator(registry, testLogger())
	_, err := alloc.Allocate(ctx, []Requirement{
		{Port: 80, Proto: "tcp"},
		{Port: 443, Proto: "tcp"},
	})
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("Expected %v, got %v", ErrPoolExhausted, err)
	}

	claimed, err := registry.TryReserve(ctx, RangeStart)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	if !claimed {
		t.Fatalf("Port %d still claimed after failed Allocate", RangeStart)
	}
}

func TestAllocateEmptyRequirements(t *testing.T) {
	alloc := NewAllocator(NewMemoryRegistry(), testLogger())

	reservations, err := alloc.Allocate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(reservations) != 0 {
		t.Fatalf("Expected no reservations, got %d", len(reservations))
	}
}

func TestConcurrentAllocate(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()
	alloc := NewAllocator(registry, testLogger())

	const workers = 16
	const perWorker = 25

	var mu sync.Mutex
	assigned := make(map[int]int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				reservations, err := alloc.Allocate(ctx, []Requirement{{Port: 80, Proto: "tcp"}})
				if err != nil {
					t.Errorf("Allocate failed: %v", err)
					return
				}
				mu.Lock()
				assigned[reservations[0].HostPort]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for port, n := range assigned {
		if n > 1 {
			t.Errorf("Port %d assigned %d times", port, n)
		}
	}

	count, err := registry.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != workers*perWorker {
		t.Fatalf("Registry holds %d ports, expected %d", count, workers*perWorker)
	}
}
