package task_test

import (
	"testing"

	"github.com/taskhub-dev/taskhub/internal/domain/task"
)

func TestCountStats(t *testing.T) {
	tasks := []task.WithCreator{
		{Task: task.Task{Status: task.StatusPending}},
		{Task: task.Task{Status: task.StatusPending}},
		{Task: task.Task{Status: task.StatusInProgress}},
		{Task: task.Task{Status: task.StatusCompleted}},
	}

	got := task.CountStats(tasks)

	want := task.Stats{Total: 4, Pending: 2, InProgress: 1, Completed: 1}

	if got != want {
		t.Errorf("CountStats: got %+v, want %+v", got, want)
	}
}

func TestCountStats_Empty(t *testing.T) {
	got := task.CountStats(nil)

	if got != (task.Stats{}) {
		t.Errorf("CountStats(nil): got %+v, want zero stats", got)
	}
}

func TestUpdateRequestEmpty(t *testing.T) {
	title := "x"

	if !(task.UpdateRequest{}).Empty() {
		t.Error("zero request should be empty")
	}

	if (task.UpdateRequest{Title: &title}).Empty() {
		t.Error("request with a field should not be empty")
	}
}
