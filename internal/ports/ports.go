package ports

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Host ports are drawn from [RangeStart, RangeEnd).
const (
	RangeStart = 30000
	RangeEnd   = 60000
)

var (
	ErrPoolExhausted = errors.New("host port pool exhausted")

	ErrInvalidRequirement = errors.New("invalid port requirement")
)

// Requirement is a container-side port an image declares, e.g. 80/tcp.
type Requirement struct {
	Port  int
	Proto string
}

func (r Requirement) String() string {
	return fmt.Sprintf("%d/%s", r.Port, r.Proto)
}

// ParseRequirement parses "80/tcp" or "53/udp". A bare port defaults to tcp.
func ParseRequirement(s string) (Requirement, error) {
	portStr, proto, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		proto = "tcp"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Requirement{}, fmt.Errorf("%w: %q", ErrInvalidRequirement, s)
	}

	switch proto {
	case "tcp", "udp":
	default:
		return Requirement{}, fmt.Errorf("%w: unknown protocol %q", ErrInvalidRequirement, s)
	}

	return Requirement{Port: port, Proto: proto}, nil
}

// ParseRequirements parses a comma-separated list, e.g. "80/tcp,53/udp".
func ParseRequirements(s string) ([]Requirement, error) {
	var reqs []Requirement
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		req, err := ParseRequirement(part)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Reservation binds one container-side requirement to an assigned host port.
type Reservation struct {
	Requirement Requirement
	HostPort    int
}
