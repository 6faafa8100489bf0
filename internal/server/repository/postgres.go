package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/internal/server/service"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
	"github.com/johnassefatheeth/pm-f-d/pkg/otel"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// observe wraps a query in a span and records its latency.
func observe(ctx context.Context, op, table string, fn func(context.Context) error) error {
	start := time.Now()
	err := otel.WithDBSpan(ctx, op, table, fn)
	metrics.RecordDBQueryDuration(op, table, time.Since(start))
	return err
}

type PostgresProjects struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresProjects(db *pgxpool.Pool, logger *zap.Logger) *PostgresProjects {
	return &PostgresProjects{db: db, logger: logger}
}

func (r *PostgresProjects) ListByOwner(ctx context.Context, owner string) ([]model.Project, error) {
	query := `
        SELECT id, owner, name, description, status, created_at, updated_at
        FROM projects
        WHERE owner = $1
        ORDER BY created_at ASC
    `
	projects := []model.Project{}
	err := observe(ctx, "select", "projects", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, owner)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p model.Project
			if err := rows.Scan(&p.ID, &p.Owner, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return err
			}
			projects = append(projects, p)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to list projects", zap.String("owner", owner), zap.Error(err))
		return nil, err
	}
	return projects, nil
}

func (r *PostgresProjects) Insert(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.String("owner", p.Owner),
		zap.String("name", p.Name),
	)

	query := `
        INSERT INTO projects (id, owner, name, description, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	err := observe(ctx, "insert", "projects", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query, p.ID, p.Owner, p.Name, p.Description, p.Status, p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return err
	}

	r.logger.Info("Project inserted successfully",
		zap.String("id", p.ID),
		zap.String("owner", p.Owner),
	)
	return nil
}

func (r *PostgresProjects) FindByID(ctx context.Context, owner, projectID string) (model.Project, error) {
	query := `
        SELECT id, owner, name, description, status, created_at, updated_at
        FROM projects
        WHERE id = $1 AND owner = $2
    `
	var p model.Project
	err := observe(ctx, "select", "projects", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, projectID, owner).
			Scan(&p.ID, &p.Owner, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Project{}, service.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find project", zap.String("project_id", projectID), zap.Error(err))
		return model.Project{}, err
	}
	return p, nil
}

type PostgresMilestones struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresMilestones(db *pgxpool.Pool, logger *zap.Logger) *PostgresMilestones {
	return &PostgresMilestones{db: db, logger: logger}
}

const milestoneColumns = `id, project_id, name, description, due_date, sort_order, status`

func scanMilestone(row pgx.Row) (model.Milestone, error) {
	var (
		m   model.Milestone
		due time.Time
	)
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &due, &m.Order, &m.Status); err != nil {
		return model.Milestone{}, err
	}
	m.DueDate = model.DateOf(due)
	return m, nil
}

func (r *PostgresMilestones) FindByProjectID(ctx context.Context, projectID string) ([]model.Milestone, error) {
	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones
        WHERE project_id = $1
        ORDER BY sort_order ASC, created_at ASC
    `
	milestones := []model.Milestone{}
	err := observe(ctx, "select", "milestones", func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, projectID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMilestone(rows)
			if err != nil {
				return err
			}
			milestones = append(milestones, m)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to find milestones", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return milestones, nil
}

func (r *PostgresMilestones) MaxOrder(ctx context.Context, projectID string) (int, error) {
	var maxOrder int
	err := observe(ctx, "select", "milestones", func(ctx context.Context) error {
		return r.db.QueryRow(ctx,
			`SELECT COALESCE(MAX(sort_order), 0) FROM milestones WHERE project_id = $1`,
			projectID,
		).Scan(&maxOrder)
	})
	return maxOrder, err
}

func (r *PostgresMilestones) Insert(ctx context.Context, m *model.Milestone) error {
	r.logger.Debug("Inserting milestone",
		zap.String("project_id", m.ProjectID),
		zap.String("name", m.Name),
		zap.Int("order", m.Order),
	)

	query := `
        INSERT INTO milestones (id, project_id, name, description, due_date, sort_order, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	err := observe(ctx, "insert", "milestones", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query, m.ID, m.ProjectID, m.Name, m.Description, m.DueDate.Time, m.Order, m.Status)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to insert milestone", zap.Error(err))
		return err
	}

	r.logger.Info("Milestone inserted successfully",
		zap.String("id", m.ID),
		zap.String("project_id", m.ProjectID),
	)
	return nil
}

// Update writes the non-nil fields of patch. Nil parameters leave the
// column as it is.
func (r *PostgresMilestones) Update(ctx context.Context, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error) {
	var due *time.Time
	if patch.DueDate != nil {
		t := patch.DueDate.Time
		due = &t
	}

	query := `
        UPDATE milestones SET
            name        = COALESCE($3, name),
            description = COALESCE($4, description),
            due_date    = COALESCE($5, due_date),
            sort_order  = COALESCE($6, sort_order),
            status      = COALESCE($7, status),
            updated_at  = now()
        WHERE project_id = $1 AND id = $2
        RETURNING ` + milestoneColumns

	var m model.Milestone
	err := observe(ctx, "update", "milestones", func(ctx context.Context) error {
		var err error
		m, err = scanMilestone(r.db.QueryRow(ctx, query,
			projectID, milestoneID,
			patch.Name, patch.Description, due, patch.Order, patch.Status,
		))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Milestone{}, service.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update milestone", zap.String("milestone_id", milestoneID), zap.Error(err))
		return model.Milestone{}, err
	}
	return m, nil
}

// Reorder updates every entry in one transaction.
func (r *PostgresMilestones) Reorder(ctx context.Context, projectID string, entries []model.OrderEntry) error {
	err := observe(ctx, "update", "milestones", func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for _, e := range entries {
				batch.Queue(
					`UPDATE milestones SET sort_order = $3, updated_at = now() WHERE project_id = $1 AND id = $2`,
					projectID, e.ID, e.Order,
				)
			}
			return tx.SendBatch(ctx, batch).Close()
		})
	})
	if err != nil {
		r.logger.Error("Failed to reorder milestones", zap.String("project_id", projectID), zap.Error(err))
		return err
	}
	r.logger.Info("Milestones reordered",
		zap.String("project_id", projectID),
		zap.Int("count", len(entries)),
	)
	return nil
}
