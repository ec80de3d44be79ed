package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub-dev/taskhub/internal/domain/task"
	"github.com/taskhub-dev/taskhub/internal/observability"
)

// Conflict errors: the row existed when it was fetched, but the write
// touched zero rows (a concurrent delete got there first).
var (
	ErrUpdateConflict = errors.New("task update affected no rows")
	ErrDeleteConflict = errors.New("task delete affected no rows")
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, title, description string, status task.Status, createdBy int64) (task.Task, error) {
	t := task.Task{
		Title:       title,
		Description: description,
		Status:      status,
		CreatedBy:   createdBy,
	}

	err := r.observe("tasks.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO tasks (title, description, status, created_by)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at, updated_at`,
			title, description, status, createdBy,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

// GetByID returns the task joined with its creator's email.
func (r *TasksRepo) GetByID(ctx context.Context, id int64) (task.WithCreator, error) {
	var t task.WithCreator

	err := r.observe("tasks.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT t.id, t.title, t.description, t.status, t.created_by, t.created_at, t.updated_at, u.email
			 FROM tasks t
			 LEFT JOIN users u ON t.created_by = u.id
			 WHERE t.id = $1`,
			id,
		).Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.CreatorEmail)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.WithCreator{}, task.ErrNotFound
		}

		return task.WithCreator{}, err
	}

	return t, nil
}

// List returns tasks newest first, each annotated with the creator's
// email. A nil filter owner means all rows.
func (r *TasksRepo) List(ctx context.Context, filter task.ListFilter) ([]task.WithCreator, error) {
	query := `SELECT t.id, t.title, t.description, t.status, t.created_by, t.created_at, t.updated_at, u.email
		FROM tasks t
		LEFT JOIN users u ON t.created_by = u.id`

	var args []interface{}

	if filter.OwnerID != nil {
		query += ` WHERE t.created_by = $1`
		args = append(args, *filter.OwnerID)
	}

	query += ` ORDER BY t.created_at DESC, t.id DESC`

	var out []task.WithCreator

	err := r.observe("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]task.WithCreator, 0)

		for rows.Next() {
			var t task.WithCreator

			err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.CreatorEmail)

			if err != nil {
				return err
			}

			out = append(out, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update rewrites title, description and status with the merged values
// the caller already resolved. Callers check existence first, so no rows
// here means the task vanished in between.
func (r *TasksRepo) Update(ctx context.Context, id int64, title, description string, status task.Status) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET title = $2,
						description = $3,
						status = $4,
						updated_at = NOW()
			WHERE id = $1
			RETURNING id, title, description, status, created_by, created_at, updated_at`,
			id, title, description, status,
		).Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, ErrUpdateConflict
		}

		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)

		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrDeleteConflict
	}

	return nil
}
