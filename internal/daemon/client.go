package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"

	"github.com/polycyber/stressdock/internal/ports"
)

// Every workload gets the same fixed ceiling; the point of the batch is
// many small containers, not tunable shapes.
const (
	containerCPUShares   = 512
	containerMemoryBytes = 2_000_000_000
)

// ContainerSpec is one workload-creation request against the daemon.
type ContainerSpec struct {
	Image        string
	Name         string
	Reservations []ports.Reservation
}

// Client drives the create/start lifecycle over an attempt-scoped transport.
type Client struct {
	transport *Transport
	logger    *slog.Logger
}

func NewClient(transport *Transport, logger *slog.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    logger,
	}
}

// Create posts the creation payload and returns the new container id. The
// workload sees its own assigned host ports through the PORTS environment
// variable, comma-joined. A create response without an id means the attempt
// failed; it is reported as ErrMissingID, never as a panic.
func (c *Client) Create(ctx context.Context, spec ContainerSpec) (string, error) {
	exposed := make(nat.PortSet, len(spec.Reservations))
	bindings := make(nat.PortMap, len(spec.Reservations))
	hostPorts := make([]string, 0, len(spec.Reservations))

	for _, res := range spec.Reservations {
		port := nat.Port(res.Requirement.String())
		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{
			HostPort: strconv.Itoa(res.HostPort),
		})
		hostPorts = append(hostPorts, strconv.Itoa(res.HostPort))
	}

	cfg := &container.Config{
		Image:        spec.Image,
		ExposedPorts: exposed,
		Env:          []string{"PORTS=" + strings.Join(hostPorts, ",")},
	}
	hostCfg := &container.HostConfig{
		PortBindings: bindings,
		Resources: container.Resources{
			CPUShares: containerCPUShares,
			Memory:    containerMemoryBytes,
		},
	}

	resp, err := c.transport.API().ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		if errdefs.IsConflict(err) {
			// Deterministic naming means re-provisioning the same
			// owner+image collides until the old container is removed.
			return "", fmt.Errorf("%w: %v", ErrNameConflict, err)
		}
		return "", fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	for _, warning := range resp.Warnings {
		c.logger.Warn("Daemon create warning", "warning", warning)
	}

	if resp.ID == "" {
		return "", ErrMissingID
	}

	c.logger.Info("Container created",
		"container_id", resp.ID,
		"container_name", spec.Name,
		"host_ports", strings.Join(hostPorts, ","),
	)
	return resp.ID, nil
}

// Start asks the daemon to start a created container.
func (c *Client) Start(ctx context.Context, id string) error {
	if err := c.transport.API().ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	return nil
}
