package planner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice"
	bob   = "bob"
)

var start = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newService wires a service to a private in-memory database.
func newService(t *testing.T, cfg planner.Config) (*planner.Service, *testClock) {
	t.Helper()

	store, err := sqlite.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: start}
	return planner.NewService(store, clock.Now, cfg), clock
}

func mustCreateTask(t *testing.T, svc *planner.Service, owner string, task *domain.Task) *domain.Task {
	t.Helper()
	created, err := svc.CreateTask(context.Background(), owner, task)
	require.NoError(t, err)
	return created
}

func mustCreateGoal(t *testing.T, svc *planner.Service, owner string, goal *domain.Goal) *domain.Goal {
	t.Helper()
	created, err := svc.CreateGoal(context.Background(), owner, goal)
	require.NoError(t, err)
	return created
}

func mustCreateProject(t *testing.T, svc *planner.Service, owner string, project *domain.Project) *domain.Project {
	t.Helper()
	created, err := svc.CreateProject(context.Background(), owner, project)
	require.NoError(t, err)
	return created
}

func mustSetStatus(t *testing.T, svc *planner.Service, owner, taskID string, status domain.TaskStatus) *planner.StatusChange {
	t.Helper()
	change, err := svc.SetTaskStatus(context.Background(), owner, taskID, string(status), "")
	require.NoError(t, err)
	return change
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
