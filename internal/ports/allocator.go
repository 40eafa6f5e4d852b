package ports

import (
	"context"
	"log/slog"
	"math/rand/v2"
)

const defaultSampleAttempts = 100

// Allocator assigns collision-free host ports out of [RangeStart, RangeEnd).
// The host-port namespace is shared across protocols: a port claimed for
// 53/udp blocks the same number for any later tcp requirement too.
type Allocator struct {
	registry       Registry
	sampleAttempts int
	logger         *slog.Logger
}

func NewAllocator(registry Registry, logger *slog.Logger) *Allocator {
	return &Allocator{
		registry:       registry,
		sampleAttempts: defaultSampleAttempts,
		logger:         logger.With("component", "port-allocator"),
	}
}

// Allocate claims one host port per requirement. Claims land in the registry
// at assignment time, so reservations from concurrent calls can never
// overlap. If any requirement cannot be satisfied the ports already claimed
// by this call are given back before the error is returned.
func (a *Allocator) Allocate(ctx context.Context, reqs []Requirement) ([]Reservation, error) {
	reservations := make([]Reservation, 0, len(reqs))

	for _, req := range reqs {
		port, err := a.pick(ctx)
		if err != nil {
			if relErr := a.Release(ctx, HostPorts(reservations)); relErr != nil {
				a.logger.Error("Failed to release partial reservations", "error", relErr)
			}
			return nil, err
		}
		reservations = append(reservations, Reservation{Requirement: req, HostPort: port})
		a.logger.Debug("Assigned host port", "requirement", req.String(), "host_port", port)
	}

	return reservations, nil
}

// Release gives claimed ports back to the pool. Only attempts that failed
// before their container existed may call this.
func (a *Allocator) Release(ctx context.Context, hostPorts []int) error {
	if len(hostPorts) == 0 {
		return nil
	}
	return a.registry.Release(ctx, hostPorts...)
}

// pick samples randomly a bounded number of times, then falls back to one
// sweep of the range from a random offset. It fails with ErrPoolExhausted
// instead of spinning when the namespace is full.
func (a *Allocator) pick(ctx context.Context) (int, error) {
	span := RangeEnd - RangeStart

	for range a.sampleAttempts {
		cand := RangeStart + rand.IntN(span)
		claimed, err := a.registry.TryReserve(ctx, cand)
		if err != nil {
			return 0, err
		}
		if claimed {
			return cand, nil
		}
	}

	offset := rand.IntN(span)
	for i := range span {
		cand := RangeStart + (offset+i)%span
		claimed, err := a.registry.TryReserve(ctx, cand)
		if err != nil {
			return 0, err
		}
		if claimed {
			return cand, nil
		}
	}

	return 0, ErrPoolExhausted
}

// HostPorts collects the assigned host ports of a reservation list, in order.
func HostPorts(reservations []Reservation) []int {
	out := make([]int, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, res.HostPort)
	}
	return out
}
