package dependency

import (
	"testing"

	"github.com/rezkam/compass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id string, status domain.TaskStatus, deps ...domain.Dependency) domain.Task {
	return domain.Task{ID: id, Status: status, Dependencies: deps}
}

func TestCanStart_BlocksUntilTargetCompleted(t *testing.T) {
	a := task("A", domain.TaskStatusInProgress)
	b := task("B", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "A", Type: domain.DependencyBlocks})

	assert.False(t, CanStart(&b, []domain.Task{a}))

	a.Status = domain.TaskStatusCompleted
	assert.True(t, CanStart(&b, []domain.Task{a}))
}

func TestCanStart_NonBlockingTypesNeverBlock(t *testing.T) {
	a := task("A", domain.TaskStatusNotStarted)
	b := task("B", domain.TaskStatusNotStarted,
		domain.Dependency{TaskID: "A", Type: domain.DependencySupports},
		domain.Dependency{TaskID: "A2", Type: domain.DependencyEnables},
	)

	assert.True(t, CanStart(&b, []domain.Task{a}))
	assert.True(t, CanStart(&b, nil))
}

func TestCanStart_MissingTargetCountsAsIncomplete(t *testing.T) {
	b := task("B", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "gone", Type: domain.DependencyBlocks})

	assert.False(t, CanStart(&b, nil))
}

func TestCanStart_CycleStaysBlocked(t *testing.T) {
	a := task("A", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "B", Type: domain.DependencyBlocks})
	b := task("B", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "A", Type: domain.DependencyBlocks})
	all := []domain.Task{a, b}

	assert.False(t, CanStart(&a, all))
	assert.False(t, CanStart(&b, all))
}

func TestBlockedBy_DeclarationOrder(t *testing.T) {
	all := []domain.Task{
		task("A", domain.TaskStatusCompleted),
		task("C", domain.TaskStatusInProgress),
		task("D", domain.TaskStatusNotStarted),
	}
	x := task("X", domain.TaskStatusNotStarted,
		domain.Dependency{TaskID: "D", Type: domain.DependencyBlocks},
		domain.Dependency{TaskID: "A", Type: domain.DependencyBlocks},
		domain.Dependency{TaskID: "C", Type: domain.DependencySupports},
		domain.Dependency{TaskID: "C", Type: domain.DependencyBlocks},
	)

	got := BlockedBy(&x, all)

	assert.Equal(t, []domain.Dependency{
		{TaskID: "D", Type: domain.DependencyBlocks},
		{TaskID: "C", Type: domain.DependencyBlocks},
	}, got)
}

func TestDependents(t *testing.T) {
	tasks := []domain.Task{
		task("B", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "A", Type: domain.DependencyBlocks}),
		task("C", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "A", Type: domain.DependencySupports}),
		task("D", domain.TaskStatusNotStarted, domain.Dependency{TaskID: "B", Type: domain.DependencyBlocks}),
	}

	got := Dependents("A", tasks)

	assert.Len(t, got, 2)
	assert.Equal(t, "B", got[0].ID)
	assert.Equal(t, "C", got[1].ID)
	assert.Empty(t, Dependents("Z", tasks))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		deps    []domain.Dependency
		wantErr bool
	}{
		{name: "none"},
		{name: "valid", deps: []domain.Dependency{{TaskID: "A", Type: domain.DependencyBlocks}, {TaskID: "B", Type: domain.DependencyEnables}}},
		{name: "self", deps: []domain.Dependency{{TaskID: "X", Type: domain.DependencyBlocks}}, wantErr: true},
		{name: "duplicate target", deps: []domain.Dependency{{TaskID: "A", Type: domain.DependencyBlocks}, {TaskID: "A", Type: domain.DependencySupports}}, wantErr: true},
		{name: "unknown type", deps: []domain.Dependency{{TaskID: "A", Type: "requires"}}, wantErr: true},
		{name: "empty target", deps: []domain.Dependency{{Type: domain.DependencyBlocks}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := task("X", domain.TaskStatusNotStarted, tt.deps...)
			err := Validate(&x)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidDependency)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_NormalizesType(t *testing.T) {
	x := task("X", domain.TaskStatusNotStarted,
		domain.Dependency{TaskID: "A", Type: "Blocks"},
		domain.Dependency{TaskID: "B", Type: " ENABLES"})

	require.NoError(t, Validate(&x))
	assert.Equal(t, domain.DependencyBlocks, x.Dependencies[0].Type)
	assert.Equal(t, domain.DependencyEnables, x.Dependencies[1].Type)
}

func TestTargetIDs(t *testing.T) {
	x := task("X", domain.TaskStatusNotStarted,
		domain.Dependency{TaskID: "B", Type: domain.DependencyBlocks},
		domain.Dependency{TaskID: "A", Type: domain.DependencySupports},
		domain.Dependency{TaskID: "B", Type: domain.DependencyEnables},
	)

	assert.Equal(t, []string{"B", "A"}, TargetIDs(&x))
}
