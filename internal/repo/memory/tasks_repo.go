package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskhub-dev/taskhub/internal/domain/task"
	"github.com/taskhub-dev/taskhub/internal/repo/postgres"
)

// TasksRepo keeps tasks in a map; the optional users repo backs the
// creator-email join the postgres repo does in SQL.
type TasksRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]task.Task
	users  *UsersRepo
}

func NewTasksRepo(users *UsersRepo) *TasksRepo {
	return &TasksRepo{
		nextID: 1,
		items:  make(map[int64]task.Task),
		users:  users,
	}
}

func (r *TasksRepo) creatorEmail(ctx context.Context, id int64) string {
	if r.users == nil {
		return ""
	}

	u, err := r.users.GetByID(ctx, id)

	if err != nil {
		return ""
	}

	return u.Email
}

func (r *TasksRepo) Create(ctx context.Context, title, description string, status task.Status, createdBy int64) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t := task.Task{
		ID:          r.nextID,
		Title:       title,
		Description: description,
		Status:      status,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.nextID++
	r.items[t.ID] = t

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id int64) (task.WithCreator, error) {
	r.mu.RLock()
	t, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return task.WithCreator{}, task.ErrNotFound
	}

	return task.WithCreator{Task: t, CreatorEmail: r.creatorEmail(ctx, t.CreatedBy)}, nil
}

func (r *TasksRepo) List(ctx context.Context, filter task.ListFilter) ([]task.WithCreator, error) {
	r.mu.RLock()

	out := make([]task.WithCreator, 0, len(r.items))

	for _, t := range r.items {
		if filter.OwnerID != nil && t.CreatedBy != *filter.OwnerID {
			continue
		}
		out = append(out, task.WithCreator{Task: t})
	}
	r.mu.RUnlock()

	for i := range out {
		out[i].CreatorEmail = r.creatorEmail(ctx, out[i].CreatedBy)
	}

	// newest first, matching the SQL ordering
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, id int64, title, description string, status task.Status) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]

	if !ok {
		return task.Task{}, postgres.ErrUpdateConflict
	}

	t.Title = title
	t.Description = description
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	r.items[id] = t

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]

	if !ok {
		return postgres.ErrDeleteConflict
	}

	delete(r.items, id)

	return nil
}
