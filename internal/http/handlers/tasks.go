package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/config"
	"github.com/taskhub-dev/taskhub/internal/domain/task"
	"github.com/taskhub-dev/taskhub/internal/http/middlewares"
	"github.com/taskhub-dev/taskhub/internal/repo/postgres"
)

type TasksStore interface {
	Create(ctx context.Context, title, description string, status task.Status, createdBy int64) (task.Task, error)
	GetByID(ctx context.Context, id int64) (task.WithCreator, error)
	List(ctx context.Context, filter task.ListFilter) ([]task.WithCreator, error)
	Update(ctx context.Context, id int64, title, description string, status task.Status) (task.Task, error)
	Delete(ctx context.Context, id int64) error
}

type TasksHandler struct {
	repo TasksStore
}

func NewTasksHandler(repo TasksStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

func claimsOrAbort(ctx *gin.Context) (*auth.Claims, bool) {
	claims, ok := middlewares.ClaimsFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return nil, false
	}

	return claims, true
}

func taskIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		// a non-numeric id can never name a task
		RespondNotFound(ctx, "Task not found")
		return 0, false
	}

	return id, true
}

// listFor resolves the row visibility rule: admins see everything,
// everyone else only their own tasks.
func (h *TasksHandler) listFor(ctx context.Context, claims *auth.Claims) ([]task.WithCreator, error) {
	filter := task.ListFilter{}

	if !claims.IsAdmin() {
		owner := claims.UserID
		filter.OwnerID = &owner
	}

	return h.repo.List(ctx, filter)
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	var req task.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	status := req.Status
	if status == "" {
		status = task.StatusPending
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	t, err := h.repo.Create(cctx, req.Title, req.Description, status, claims.UserID)

	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	RespondData(ctx, http.StatusCreated, "Task created successfully", gin.H{"task": t})
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tasks, err := h.listFor(cctx, claims)

	if err != nil {
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	RespondList(ctx, len(tasks), gin.H{"tasks": tasks})
}

func (h *TasksHandler) GetTaskByID(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not fetch task")
		return
	}

	if !claims.CanAccessTask(t.CreatedBy) {
		RespondForbidden(ctx, "Not authorized to view this task")
		return
	}

	RespondData(ctx, http.StatusOK, "", gin.H{"task": t})
}

// UpdateTask is fetch-then-authorize-then-write. Fields omitted from the
// payload keep their stored values, all three columns are rewritten with
// the merged result.
func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	var req task.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondValidation(ctx, []FieldError{
			{Field: "body", Message: "must contain at least one field to update"},
		})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not fetch task")
		return
	}

	if !claims.CanAccessTask(existing.CreatedBy) {
		RespondForbidden(ctx, "Not authorized to update this task")
		return
	}

	title := existing.Title
	if req.Title != nil {
		title = *req.Title
	}

	description := existing.Description
	if req.Description != nil {
		description = *req.Description
	}

	status := existing.Status
	if req.Status != nil {
		status = *req.Status
	}

	updated, err := h.repo.Update(cctx, id, title, description, status)

	if err != nil {
		// conflict or plain store failure, either way the write did not land
		RespondInternal(ctx, "Failed to update task")
		return
	}

	RespondData(ctx, http.StatusOK, "Task updated successfully", gin.H{"task": updated})
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not fetch task")
		return
	}

	if !claims.CanAccessTask(existing.CreatedBy) {
		RespondForbidden(ctx, "Not authorized to delete this task")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrDeleteConflict) {
			RespondInternal(ctx, "Failed to delete task")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	RespondData(ctx, http.StatusOK, "Task deleted successfully", nil)
}

// TaskStats counts the caller's visible tasks by status. Derived from the
// same query ListTasks runs, never a separate aggregate.
func (h *TasksHandler) TaskStats(ctx *gin.Context) {
	claims, ok := claimsOrAbort(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tasks, err := h.listFor(cctx, claims)

	if err != nil {
		RespondInternal(ctx, "Could not compute task stats")
		return
	}

	RespondData(ctx, http.StatusOK, "", gin.H{"stats": task.CountStats(tasks)})
}
