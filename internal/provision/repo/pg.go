package repo

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"

	"github.com/polycyber/stressdock/internal/provision"
)

var _ provision.Recorder = (*Repository)(nil)

// Repository journals provisioning results to Postgres so a run's outcome
// survives the process.
type Repository struct {
	db *pg.DB
}

func NewRepository(db *pg.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the results table if it does not exist yet.
func Migrate(db *pg.DB) error {
	return db.Model(&ResultModel{}).CreateTable(&orm.CreateTableOptions{
		IfNotExists: true,
	})
}

func (r *Repository) Record(ctx context.Context, res *provision.Result) error {
	model := &ResultModel{
		AttemptID:     res.AttemptID,
		Owner:         res.Owner,
		ContainerName: res.ContainerName,
		ContainerID:   res.ContainerID,
		HostPorts:     res.HostPorts,
		StartError:    errText(res.StartErr),
		CreatedAt:     res.CreatedAt,
	}

	_, err := r.db.ModelContext(ctx, model).Insert()
	return err
}

// List returns the journal for diagnostics, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]ResultModel, error) {
	var models []ResultModel
	q := r.db.ModelContext(ctx, &models).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Select(); err != nil {
		return nil, err
	}
	return models, nil
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
