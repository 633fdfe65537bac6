package domain

// Level is the shared four-step scale used for urgency, importance and priority.
// Value object - immutable string enum.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Ordinal returns the position of the level on the scale (low=0 ... critical=3).
// The second result is false for values outside the known set.
func (l Level) Ordinal() (int, bool) {
	switch l {
	case LevelLow:
		return 0, true
	case LevelMedium:
		return 1, true
	case LevelHigh:
		return 2, true
	case LevelCritical:
		return 3, true
	default:
		return 0, false
	}
}

// TaskStatus represents the current state of a task.
// Archiving is tracked separately through Task.ArchivedAt.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// DependencyType describes how a task relates to the task it depends on.
type DependencyType string

const (
	// DependencyBlocks means the dependent task cannot start until the target is completed.
	DependencyBlocks DependencyType = "blocks"
	// DependencyEnables is informational: the target makes the task easier, never blocks.
	DependencyEnables DependencyType = "enables"
	// DependencySupports is informational, never blocks.
	DependencySupports DependencyType = "supports"
)

// Frequency is the recurrence period of a recurring task.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// GoalStatus is the derived lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusAtRisk     GoalStatus = "at_risk"
	GoalStatusOverdue    GoalStatus = "overdue"
	GoalStatusAchieved   GoalStatus = "achieved"
)

// ProjectStatus represents the state of a project.
type ProjectStatus string

const (
	ProjectStatusNotStarted ProjectStatus = "not_started"
	ProjectStatusActive     ProjectStatus = "active"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// ProjectRole is the part a linked project plays for a business.
type ProjectRole string

const (
	ProjectRolePrimary    ProjectRole = "primary"
	ProjectRoleSupporting ProjectRole = "supporting"
	ProjectRoleRelated    ProjectRole = "related"
	ProjectRoleDependency ProjectRole = "dependency"
)

// BusinessPhase is the roadmap lane a linked project belongs to.
type BusinessPhase string

const (
	PhaseResearch    BusinessPhase = "research"
	PhaseDevelopment BusinessPhase = "development"
	PhaseLaunch      BusinessPhase = "launch"
	PhaseGrowth      BusinessPhase = "growth"
	PhaseMaintenance BusinessPhase = "maintenance"
)

// AllPhases returns every business phase in roadmap order.
func AllPhases() []BusinessPhase {
	return []BusinessPhase{PhaseResearch, PhaseDevelopment, PhaseLaunch, PhaseGrowth, PhaseMaintenance}
}
