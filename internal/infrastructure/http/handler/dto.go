package handler

import (
	"time"

	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/priority"
)

// Wire types of the JSON API. Domain types never cross the HTTP boundary directly.

// PriorityDTO is an Eisenhower classification.
type PriorityDTO struct {
	Quadrant string `json:"quadrant"`
	Label    string `json:"label"`
	Score    int    `json:"score"`
}

// SubtaskDTO is a checklist entry of a task.
type SubtaskDTO struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// DependencyDTO is an edge from a task to the task it depends on.
type DependencyDTO struct {
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
}

// RecurrenceDTO describes how a task repeats.
type RecurrenceDTO struct {
	IsRecurring bool       `json:"is_recurring"`
	Frequency   string     `json:"frequency,omitempty"`
	NextDue     *time.Time `json:"next_due,omitempty"`
}

// LinkDTO is the single project, goal or business a task belongs to.
type LinkDTO struct {
	Kind      string `json:"kind"`
	ID        string `json:"id"`
	Milestone *int   `json:"milestone,omitempty"`
}

// TaskDTO is the API representation of a task.
type TaskDTO struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Category           string          `json:"category,omitempty"`
	Tags               []string        `json:"tags"`
	Urgency            string          `json:"urgency"`
	Importance         string          `json:"importance"`
	Priority           PriorityDTO     `json:"priority"`
	Status             string          `json:"status"`
	Deadline           *time.Time      `json:"deadline,omitempty"`
	EstimatedTime      int             `json:"estimated_time"`
	ActualTime         int             `json:"actual_time"`
	Subtasks           []SubtaskDTO    `json:"subtasks"`
	Dependencies       []DependencyDTO `json:"dependencies"`
	Recurring          RecurrenceDTO   `json:"recurring"`
	Link               *LinkDTO        `json:"link,omitempty"`
	RecurrenceParentID *string         `json:"recurrence_parent_id,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	ArchivedAt         *time.Time      `json:"archived_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Etag               string          `json:"etag"`
}

// TaskRequest is the body of POST /api/tasks and the field set of PATCH /api/tasks/{id}.
type TaskRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Tags          *[]string        `json:"tags"`
	Urgency       *string          `json:"urgency"`
	Importance    *string          `json:"importance"`
	Status        *string          `json:"status"`
	Deadline      *time.Time       `json:"deadline"`
	EstimatedTime *int             `json:"estimated_time"`
	ActualTime    *int             `json:"actual_time"`
	Subtasks      *[]SubtaskDTO    `json:"subtasks"`
	Dependencies  *[]DependencyDTO `json:"dependencies"`
	Recurring     *RecurrenceDTO   `json:"recurring"`
	Link          *LinkDTO         `json:"link"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/{id}.
type UpdateTaskRequest struct {
	Etag       *string     `json:"etag"`
	UpdateMask []string    `json:"update_mask"`
	Task       TaskRequest `json:"task"`
}

// StatusRequest is the body of POST /api/tasks/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// StatusChangeDTO is the outcome of a status transition.
type StatusChangeDTO struct {
	Task         TaskDTO  `json:"task"`
	NextInstance *TaskDTO `json:"next_instance,omitempty"`
	Replayed     bool     `json:"replayed"`
}

// BlockingDTO reports what blocks a task and what waits on it.
type BlockingDTO struct {
	CanStart   bool            `json:"can_start"`
	BlockedBy  []DependencyDTO `json:"blocked_by"`
	Dependents []TaskDTO       `json:"dependents"`
}

// SubtaskPatchRequest is the body of PATCH /api/tasks/{id}/subtasks/{index}.
type SubtaskPatchRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// ListTasksResponse is a page of tasks.
type ListTasksResponse struct {
	Tasks         []TaskDTO `json:"tasks"`
	TotalCount    int       `json:"total_count"`
	NextPageToken *string   `json:"next_page_token,omitempty"`
}

// GoalMilestoneDTO is a checkpoint of a goal.
type GoalMilestoneDTO struct {
	Title       string     `json:"title"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
}

// ProgressEntryDTO is a manually recorded measurement of a goal.
type ProgressEntryDTO struct {
	Value      float64   `json:"value"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// GoalBreakdownDTO explains how a goal's progress was derived.
type GoalBreakdownDTO struct {
	TotalTasks        int     `json:"total_tasks"`
	CompletedTasks    int     `json:"completed_tasks"`
	TotalProjects     int     `json:"total_projects"`
	CompletedProjects int     `json:"completed_projects"`
	ActiveProjects    int     `json:"active_projects"`
	CompletedUnits    float64 `json:"completed_units"`
	TotalUnits        int     `json:"total_units"`
}

// GoalDTO is the API representation of a goal. Status and Progress are computed
// at read time; CachedStatus is the last persisted value.
type GoalDTO struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Category        string             `json:"category,omitempty"`
	Priority        string             `json:"priority"`
	TargetDate      *time.Time         `json:"target_date,omitempty"`
	Progress        int                `json:"progress"`
	Status          string             `json:"status"`
	CachedStatus    string             `json:"cached_status"`
	AchievedAt      *time.Time         `json:"achieved_at,omitempty"`
	Breakdown       GoalBreakdownDTO   `json:"breakdown"`
	CurrentValue    *float64           `json:"current_value,omitempty"`
	TargetValue     *float64           `json:"target_value,omitempty"`
	Unit            string             `json:"unit,omitempty"`
	Milestones      []GoalMilestoneDTO `json:"milestones"`
	ProgressEntries []ProgressEntryDTO `json:"progress_entries"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Etag            string             `json:"etag"`
}

// GoalRequest is the body of POST /api/goals and the field set of PATCH /api/goals/{id}.
type GoalRequest struct {
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	Category     *string             `json:"category"`
	Priority     *string             `json:"priority"`
	TargetDate   *time.Time          `json:"target_date"`
	CurrentValue *float64            `json:"current_value"`
	TargetValue  *float64            `json:"target_value"`
	Unit         *string             `json:"unit"`
	Milestones   *[]GoalMilestoneDTO `json:"milestones"`
}

// UpdateGoalRequest is the body of PATCH /api/goals/{id}.
type UpdateGoalRequest struct {
	Etag       *string     `json:"etag"`
	UpdateMask []string    `json:"update_mask"`
	Goal       GoalRequest `json:"goal"`
}

// RecordProgressRequest is the body of POST /api/goals/{id}/progress.
type RecordProgressRequest struct {
	Value *float64 `json:"value"`
	Note  string   `json:"note"`
}

// ProjectMilestoneDTO is a deliverable of a project.
type ProjectMilestoneDTO struct {
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ProjectDTO is the API representation of a project.
type ProjectDTO struct {
	ID                   string                `json:"id"`
	Title                string                `json:"title"`
	Description          string                `json:"description,omitempty"`
	Status               string                `json:"status"`
	CompletionPercentage float64               `json:"completion_percentage"`
	Milestones           []ProjectMilestoneDTO `json:"milestones"`
	GoalID               *string               `json:"goal_id,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	Etag                 string                `json:"etag"`
	// Tasks is only set on GET /api/projects/{id}, ordered by priority.
	Tasks []TaskDTO `json:"tasks,omitempty"`
}

// ProjectRequest is the body of POST /api/projects and the field set of PATCH /api/projects/{id}.
type ProjectRequest struct {
	Title                *string                `json:"title"`
	Description          *string                `json:"description"`
	Status               *string                `json:"status"`
	CompletionPercentage *float64               `json:"completion_percentage"`
	Milestones           *[]ProjectMilestoneDTO `json:"milestones"`
	GoalID               *string                `json:"goal_id"`
}

// UpdateProjectRequest is the body of PATCH /api/projects/{id}.
type UpdateProjectRequest struct {
	Etag       *string        `json:"etag"`
	UpdateMask []string       `json:"update_mask"`
	Project    ProjectRequest `json:"project"`
}

// ProjectDependencyDTO is an edge between two projects of a business.
type ProjectDependencyDTO struct {
	ProjectID string `json:"project_id"`
	Type      string `json:"type"`
}

// LinkedProjectDTO is a project's participation in a business.
type LinkedProjectDTO struct {
	ID                   string                 `json:"id"`
	BusinessID           string                 `json:"business_id"`
	ProjectID            string                 `json:"project_id"`
	Role                 string                 `json:"role"`
	Priority             string                 `json:"priority"`
	Phase                string                 `json:"phase"`
	TargetCompletionDate *time.Time             `json:"target_completion_date,omitempty"`
	Dependencies         []ProjectDependencyDTO `json:"dependencies"`
	CreatedAt            time.Time              `json:"created_at"`
}

// LinkProjectRequest is the body of POST /api/businesses/{id}/projects.
type LinkProjectRequest struct {
	ProjectID            string                 `json:"project_id"`
	Role                 string                 `json:"role"`
	Priority             string                 `json:"priority"`
	Phase                string                 `json:"phase"`
	TargetCompletionDate *time.Time             `json:"target_completion_date"`
	Dependencies         []ProjectDependencyDTO `json:"dependencies"`
}

// Domain → DTO mappers

func mapPriority(c priority.Classification) PriorityDTO {
	return PriorityDTO{Quadrant: string(c.Quadrant), Label: c.Label, Score: c.Score}
}

func mapDependencies(deps []domain.Dependency) []DependencyDTO {
	out := make([]DependencyDTO, 0, len(deps))
	for _, d := range deps {
		out = append(out, DependencyDTO{TaskID: d.TaskID, Type: string(d.Type)})
	}
	return out
}

func mapLink(l domain.Link) *LinkDTO {
	kind, id, milestone := domain.LinkParts(l)
	if kind == domain.LinkKindNone {
		return nil
	}
	return &LinkDTO{Kind: string(kind), ID: id, Milestone: milestone}
}

// MapTaskToDTO converts domain.Task to TaskDTO.
func MapTaskToDTO(t *domain.Task) TaskDTO {
	subtasks := make([]SubtaskDTO, 0, len(t.Subtasks))
	for _, s := range t.Subtasks {
		subtasks = append(subtasks, SubtaskDTO(s))
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	return TaskDTO{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Category:      t.Category,
		Tags:          tags,
		Urgency:       string(t.Urgency),
		Importance:    string(t.Importance),
		Priority:      mapPriority(priority.Classify(t.Urgency, t.Importance)),
		Status:        string(t.Status),
		Deadline:      t.Deadline,
		EstimatedTime: t.EstimatedTime,
		ActualTime:    t.ActualTime,
		Subtasks:      subtasks,
		Dependencies:  mapDependencies(t.Dependencies),
		Recurring: RecurrenceDTO{
			IsRecurring: t.Recurring.IsRecurring,
			Frequency:   string(t.Recurring.Frequency),
			NextDue:     t.Recurring.NextDue,
		},
		Link:               mapLink(t.Link),
		RecurrenceParentID: t.RecurrenceParentID,
		CompletedAt:        t.CompletedAt,
		ArchivedAt:         t.ArchivedAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		Etag:               t.Etag(),
	}
}

func mapTasks(tasks []domain.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		out = append(out, MapTaskToDTO(&tasks[i]))
	}
	return out
}

// MapGoalToDTO converts a goal and its computed snapshot to GoalDTO.
func MapGoalToDTO(v *planner.GoalView) GoalDTO {
	g, s := v.Goal, v.Snapshot

	milestones := make([]GoalMilestoneDTO, 0, len(g.Milestones))
	for _, m := range g.Milestones {
		milestones = append(milestones, GoalMilestoneDTO(m))
	}
	entries := make([]ProgressEntryDTO, 0, len(g.ProgressEntries))
	for _, e := range g.ProgressEntries {
		entries = append(entries, ProgressEntryDTO(e))
	}

	return GoalDTO{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		Category:     g.Category,
		Priority:     string(g.Priority),
		TargetDate:   g.TargetDate,
		Progress:     s.Progress,
		Status:       string(s.Status),
		CachedStatus: string(g.Status),
		AchievedAt:   g.AchievedAt,
		Breakdown: GoalBreakdownDTO{
			TotalTasks:        s.TotalTasks,
			CompletedTasks:    s.CompletedTasks,
			TotalProjects:     s.TotalProjects,
			CompletedProjects: s.CompletedProjects,
			ActiveProjects:    s.ActiveProjects,
			CompletedUnits:    s.CompletedUnits,
			TotalUnits:        s.TotalUnits,
		},
		CurrentValue:    g.CurrentValue,
		TargetValue:     g.TargetValue,
		Unit:            g.Unit,
		Milestones:      milestones,
		ProgressEntries: entries,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
		Etag:            g.Etag(),
	}
}

// MapProjectToDTO converts domain.Project to ProjectDTO.
func MapProjectToDTO(p *domain.Project) ProjectDTO {
	milestones := make([]ProjectMilestoneDTO, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		milestones = append(milestones, ProjectMilestoneDTO(m))
	}

	return ProjectDTO{
		ID:                   p.ID,
		Title:                p.Title,
		Description:          p.Description,
		Status:               string(p.Status),
		CompletionPercentage: p.CompletionPercentage,
		Milestones:           milestones,
		GoalID:               p.GoalID,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Etag:                 p.Etag(),
	}
}

// MapLinkedProjectToDTO converts domain.LinkedProject to LinkedProjectDTO.
func MapLinkedProjectToDTO(lp *domain.LinkedProject) LinkedProjectDTO {
	deps := make([]ProjectDependencyDTO, 0, len(lp.Dependencies))
	for _, d := range lp.Dependencies {
		deps = append(deps, ProjectDependencyDTO{ProjectID: d.ProjectID, Type: string(d.Type)})
	}

	return LinkedProjectDTO{
		ID:                   lp.ID,
		BusinessID:           lp.BusinessID,
		ProjectID:            lp.ProjectID,
		Role:                 string(lp.Role),
		Priority:             string(lp.Priority),
		Phase:                string(lp.Phase),
		TargetCompletionDate: lp.TargetCompletionDate,
		Dependencies:         deps,
		CreatedAt:            lp.CreatedAt,
	}
}

// DTO → domain mappers

func toSubtasks(in []SubtaskDTO) []domain.Subtask {
	out := make([]domain.Subtask, 0, len(in))
	for _, s := range in {
		out = append(out, domain.Subtask(s))
	}
	return out
}

func toDependencies(in []DependencyDTO) []domain.Dependency {
	out := make([]domain.Dependency, 0, len(in))
	for _, d := range in {
		out = append(out, domain.Dependency{TaskID: d.TaskID, Type: domain.DependencyType(d.Type)})
	}
	return out
}

func toRecurrence(in RecurrenceDTO) domain.Recurrence {
	return domain.Recurrence{
		IsRecurring: in.IsRecurring,
		Frequency:   domain.Frequency(in.Frequency),
		NextDue:     in.NextDue,
	}
}

func toLink(in *LinkDTO) (domain.Link, error) {
	if in == nil {
		return nil, nil
	}
	return domain.LinkFromParts(in.Kind, in.ID, in.Milestone)
}

func toGoalMilestones(in []GoalMilestoneDTO) []domain.GoalMilestone {
	out := make([]domain.GoalMilestone, 0, len(in))
	for _, m := range in {
		out = append(out, domain.GoalMilestone(m))
	}
	return out
}

func toProjectMilestones(in []ProjectMilestoneDTO) []domain.ProjectMilestone {
	out := make([]domain.ProjectMilestone, 0, len(in))
	for _, m := range in {
		out = append(out, domain.ProjectMilestone(m))
	}
	return out
}
