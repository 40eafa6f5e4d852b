package repo

import "time"

// ResultModel is the persisted form of a provisioning result.
type ResultModel struct {
	AttemptID     string    `json:"attempt_id" pg:"attempt_id,pk"`
	Owner         string    `json:"owner" pg:"owner,notnull"`
	ContainerName string    `json:"container_name" pg:"container_name,notnull"`
	ContainerID   string    `json:"container_id" pg:"container_id,notnull"`
	HostPorts     []int     `json:"host_ports" pg:"host_ports,array"`
	StartError    string    `json:"start_error" pg:"start_error"`
	CreatedAt     time.Time `json:"created_at" pg:"created_at,notnull"`
}
