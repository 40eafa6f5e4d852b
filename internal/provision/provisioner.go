package provision

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/polycyber/stressdock/internal/daemon"
	"github.com/polycyber/stressdock/internal/monitor"
	"github.com/polycyber/stressdock/internal/naming"
	"github.com/polycyber/stressdock/internal/ports"
)

// Provisioner drives N workload-creation attempts against the daemon,
// sequentially, sharing one used-port registry through the allocator.
type Provisioner struct {
	alloc    *ports.Allocator
	registry ports.Registry
	cfg      Config
	recorder Recorder
	logger   *slog.Logger
}

func New(alloc *ports.Allocator, registry ports.Registry, cfg Config, recorder Recorder, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		alloc:    alloc,
		registry: registry,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With("component", "provisioner"),
	}
}

// Run makes exactly count attempts and returns the results of the ones that
// produced a container. A failed attempt is logged and skipped; there is no
// retry and no re-selection of a different owner. Cancelling the context
// stops the batch between attempts.
func (p *Provisioner) Run(ctx context.Context, count int) []Result {
	results := make([]Result, 0, count)

	for i := range count {
		if ctx.Err() != nil {
			p.logger.Warn("Batch cancelled", "completed_attempts", i)
			break
		}

		monitor.ProvisionAttemptsTotal.Inc()
		res, err := p.attempt(ctx)
		if err != nil {
			monitor.ProvisionFailuresTotal.Inc()
			p.logger.Warn("Provisioning attempt failed", "attempt", i+1, "error", err)
			continue
		}

		results = append(results, *res)
		monitor.ProvisionedTotal.Inc()

		if used, err := p.registry.Count(ctx); err == nil {
			monitor.AllocatedPortsCount.Set(float64(used))
		}
	}

	p.logger.Info("Batch finished", "requested", count, "provisioned", len(results))
	return results
}

// attempt runs the full pipeline once: pick an owner, derive the container
// name, claim host ports, build an attempt-scoped transport, create and
// start. Ports are released if the attempt dies before a container exists;
// once created, the container owns them whether or not it started.
func (p *Provisioner) attempt(ctx context.Context) (res *Result, err error) {
	attemptID := uuid.New().String()
	owner := p.cfg.Owners[rand.IntN(len(p.cfg.Owners))]
	name := naming.ContainerName(owner, p.cfg.Image)

	logger := p.logger.With(
		slog.String("attempt_id", attemptID),
		slog.String("owner", owner),
		slog.String("container_name", name),
	)

	reservations, err := p.alloc.Allocate(ctx, p.cfg.Exposed)
	if err != nil {
		return nil, err
	}
	hostPorts := ports.HostPorts(reservations)

	defer func() {
		if err != nil {
			if relErr := p.alloc.Release(ctx, hostPorts); relErr != nil {
				logger.Error("Failed to release ports", "error", relErr)
			}
		}
	}()

	transport, err := daemon.NewTransport(p.cfg.Profile, logger)
	if err != nil {
		return nil, err
	}
	defer transport.Release()

	logger.Info("Provisioning workload",
		"scheme", transport.Scheme,
		"host", transport.Host,
		"host_ports", hostPorts,
	)

	cli := daemon.NewClient(transport, logger)

	timer := time.Now()
	id, err := cli.Create(ctx, daemon.ContainerSpec{
		Image:        p.cfg.Image,
		Name:         name,
		Reservations: reservations,
	})
	if err != nil {
		return nil, err
	}

	startErr := cli.Start(ctx, id)
	monitor.CreateLatency.Observe(time.Since(timer).Seconds())
	if startErr != nil {
		monitor.StartFailuresTotal.Inc()
		logger.Warn("Container created but failed to start", "container_id", id, "error", startErr)
	}

	res = &Result{
		AttemptID:     attemptID,
		Owner:         owner,
		ContainerName: name,
		ContainerID:   id,
		HostPorts:     hostPorts,
		StartErr:      startErr,
		CreatedAt:     time.Now().UTC(),
	}

	if p.recorder != nil {
		if recErr := p.recorder.Record(ctx, res); recErr != nil {
			logger.Error("Failed to journal result", "error", recErr)
		}
	}

	return res, nil
}
