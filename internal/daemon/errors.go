package daemon

import "errors"

var (
	ErrCredentialMaterialize = errors.New("failed to materialize transport credentials")

	ErrCreateFailed = errors.New("failed to create container")

	ErrMissingID = errors.New("create response carried no container id")

	ErrNameConflict = errors.New("container name already in use")

	ErrStartFailed = errors.New("failed to start container")
)
