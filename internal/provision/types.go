package provision

import (
	"context"
	"time"

	"github.com/polycyber/stressdock/internal/daemon"
	"github.com/polycyber/stressdock/internal/ports"
)

// Config drives one batch run.
type Config struct {
	Image   string
	Owners  []string
	Exposed []ports.Requirement
	Profile daemon.Profile
}

// Result is one successfully created workload. StartErr is set when the
// daemon accepted the container but refused to start it; the workload still
// exists and holds its ports, so it stays in the result set and the caller
// decides how to treat it.
type Result struct {
	AttemptID     string
	Owner         string
	ContainerName string
	ContainerID   string
	HostPorts     []int
	StartErr      error
	CreatedAt     time.Time
}

// Recorder journals results as they land. Optional; a nil recorder is
// silently skipped.
type Recorder interface {
	Record(ctx context.Context, res *Result) error
}
