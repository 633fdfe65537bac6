// Package codec converts aggregates to and from the flat rows shared by the SQL stores.
//
// Nested collections (subtasks, dependencies, milestones, progress entries, tags) are
// stored as JSON documents; everything else maps to a scalar column.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/priority"
)

type subtaskRecord struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type dependencyRecord struct {
	TaskID string `json:"task_id"`
	Type   string `json:"type"`
}

type goalMilestoneRecord struct {
	Title       string     `json:"title"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
}

type progressEntryRecord struct {
	Value      float64   `json:"value"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type projectMilestoneRecord struct {
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type projectDependencyRecord struct {
	ProjectID string `json:"project_id"`
	Type      string `json:"type"`
}

// TaskRow is the column layout of the tasks table.
type TaskRow struct {
	ID                 string
	OwnerID            string
	Title              string
	Description        string
	Category           string
	Tags               string // JSON array
	Urgency            string
	Importance         string
	PriorityScore      int    // Derived from urgency and importance, for ordering
	Quadrant           string // Derived, for filtering and display
	Status             string
	Deadline           *time.Time
	EstimatedTime      int
	ActualTime         int
	Subtasks           string // JSON array
	Dependencies       string // JSON array
	IsRecurring        bool
	Frequency          string
	NextDue            *time.Time
	LinkKind           string
	LinkID             string
	LinkMilestone      *int
	RecurrenceParentID *string
	CompletedAt        *time.Time
	ArchivedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int
}

// TaskToRow flattens a task.
func TaskToRow(t *domain.Task) (TaskRow, error) {
	tags, err := marshal(nonNil(t.Tags))
	if err != nil {
		return TaskRow{}, fmt.Errorf("encode tags: %w", err)
	}

	subtasks := make([]subtaskRecord, len(t.Subtasks))
	for i, s := range t.Subtasks {
		subtasks[i] = subtaskRecord{Title: s.Title, Completed: s.Completed}
	}
	subtasksJSON, err := marshal(subtasks)
	if err != nil {
		return TaskRow{}, fmt.Errorf("encode subtasks: %w", err)
	}

	deps := make([]dependencyRecord, len(t.Dependencies))
	for i, d := range t.Dependencies {
		deps[i] = dependencyRecord{TaskID: d.TaskID, Type: string(d.Type)}
	}
	depsJSON, err := marshal(deps)
	if err != nil {
		return TaskRow{}, fmt.Errorf("encode dependencies: %w", err)
	}

	kind, linkID, milestone := domain.LinkParts(t.Link)
	c := priority.Classify(t.Urgency, t.Importance)

	return TaskRow{
		ID:                 t.ID,
		OwnerID:            t.OwnerID,
		Title:              t.Title,
		Description:        t.Description,
		Category:           t.Category,
		Tags:               tags,
		Urgency:            string(t.Urgency),
		Importance:         string(t.Importance),
		PriorityScore:      c.Score,
		Quadrant:           string(c.Quadrant),
		Status:             string(t.Status),
		Deadline:           utc(t.Deadline),
		EstimatedTime:      t.EstimatedTime,
		ActualTime:         t.ActualTime,
		Subtasks:           subtasksJSON,
		Dependencies:       depsJSON,
		IsRecurring:        t.Recurring.IsRecurring,
		Frequency:          string(t.Recurring.Frequency),
		NextDue:            utc(t.Recurring.NextDue),
		LinkKind:           string(kind),
		LinkID:             linkID,
		LinkMilestone:      milestone,
		RecurrenceParentID: t.RecurrenceParentID,
		CompletedAt:        utc(t.CompletedAt),
		ArchivedAt:         utc(t.ArchivedAt),
		CreatedAt:          t.CreatedAt.UTC(),
		UpdatedAt:          t.UpdatedAt.UTC(),
		Version:            t.Version,
	}, nil
}

// Task rebuilds the task stored in the row.
func (r TaskRow) Task() (*domain.Task, error) {
	var tags []string
	if err := unmarshal(r.Tags, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	var subtaskRecs []subtaskRecord
	if err := unmarshal(r.Subtasks, &subtaskRecs); err != nil {
		return nil, fmt.Errorf("decode subtasks: %w", err)
	}
	subtasks := make([]domain.Subtask, len(subtaskRecs))
	for i, s := range subtaskRecs {
		subtasks[i] = domain.Subtask{Title: s.Title, Completed: s.Completed}
	}

	var depRecs []dependencyRecord
	if err := unmarshal(r.Dependencies, &depRecs); err != nil {
		return nil, fmt.Errorf("decode dependencies: %w", err)
	}
	deps := make([]domain.Dependency, len(depRecs))
	for i, d := range depRecs {
		deps[i] = domain.Dependency{TaskID: d.TaskID, Type: domain.DependencyType(d.Type)}
	}

	link, err := domain.LinkFromParts(r.LinkKind, r.LinkID, r.LinkMilestone)
	if err != nil {
		return nil, fmt.Errorf("decode link: %w", err)
	}

	return &domain.Task{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Tags:          tags,
		Urgency:       domain.Level(r.Urgency),
		Importance:    domain.Level(r.Importance),
		Status:        domain.TaskStatus(r.Status),
		Deadline:      utc(r.Deadline),
		EstimatedTime: r.EstimatedTime,
		ActualTime:    r.ActualTime,
		Subtasks:      subtasks,
		Dependencies:  deps,
		Recurring: domain.Recurrence{
			IsRecurring: r.IsRecurring,
			Frequency:   domain.Frequency(r.Frequency),
			NextDue:     utc(r.NextDue),
		},
		Link:               link,
		RecurrenceParentID: r.RecurrenceParentID,
		CompletedAt:        utc(r.CompletedAt),
		ArchivedAt:         utc(r.ArchivedAt),
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
		Version:            r.Version,
	}, nil
}

// GoalRow is the column layout of the goals table.
type GoalRow struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	Category        string
	Priority        string
	TargetDate      *time.Time
	Status          string
	AchievedAt      *time.Time
	CurrentValue    *float64
	TargetValue     *float64
	Unit            string
	Milestones      string // JSON array
	ProgressEntries string // JSON array
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

// GoalToRow flattens a goal.
func GoalToRow(g *domain.Goal) (GoalRow, error) {
	milestones := make([]goalMilestoneRecord, len(g.Milestones))
	for i, m := range g.Milestones {
		milestones[i] = goalMilestoneRecord{Title: m.Title, TargetDate: utc(m.TargetDate), IsCompleted: m.IsCompleted}
	}
	milestonesJSON, err := marshal(milestones)
	if err != nil {
		return GoalRow{}, fmt.Errorf("encode milestones: %w", err)
	}

	entries := make([]progressEntryRecord, len(g.ProgressEntries))
	for i, e := range g.ProgressEntries {
		entries[i] = progressEntryRecord{Value: e.Value, Note: e.Note, RecordedAt: e.RecordedAt.UTC()}
	}
	entriesJSON, err := marshal(entries)
	if err != nil {
		return GoalRow{}, fmt.Errorf("encode progress entries: %w", err)
	}

	return GoalRow{
		ID:              g.ID,
		OwnerID:         g.OwnerID,
		Title:           g.Title,
		Description:     g.Description,
		Category:        g.Category,
		Priority:        string(g.Priority),
		TargetDate:      utc(g.TargetDate),
		Status:          string(g.Status),
		AchievedAt:      utc(g.AchievedAt),
		CurrentValue:    g.CurrentValue,
		TargetValue:     g.TargetValue,
		Unit:            g.Unit,
		Milestones:      milestonesJSON,
		ProgressEntries: entriesJSON,
		CreatedAt:       g.CreatedAt.UTC(),
		UpdatedAt:       g.UpdatedAt.UTC(),
		Version:         g.Version,
	}, nil
}

// Goal rebuilds the goal stored in the row.
func (r GoalRow) Goal() (*domain.Goal, error) {
	var milestoneRecs []goalMilestoneRecord
	if err := unmarshal(r.Milestones, &milestoneRecs); err != nil {
		return nil, fmt.Errorf("decode milestones: %w", err)
	}
	milestones := make([]domain.GoalMilestone, len(milestoneRecs))
	for i, m := range milestoneRecs {
		milestones[i] = domain.GoalMilestone{Title: m.Title, TargetDate: utc(m.TargetDate), IsCompleted: m.IsCompleted}
	}

	var entryRecs []progressEntryRecord
	if err := unmarshal(r.ProgressEntries, &entryRecs); err != nil {
		return nil, fmt.Errorf("decode progress entries: %w", err)
	}
	entries := make([]domain.ProgressEntry, len(entryRecs))
	for i, e := range entryRecs {
		entries[i] = domain.ProgressEntry{Value: e.Value, Note: e.Note, RecordedAt: e.RecordedAt.UTC()}
	}

	return &domain.Goal{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Priority:        domain.Level(r.Priority),
		TargetDate:      utc(r.TargetDate),
		Status:          domain.GoalStatus(r.Status),
		AchievedAt:      utc(r.AchievedAt),
		CurrentValue:    r.CurrentValue,
		TargetValue:     r.TargetValue,
		Unit:            r.Unit,
		Milestones:      milestones,
		ProgressEntries: entries,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
		Version:         r.Version,
	}, nil
}

// ProjectRow is the column layout of the projects table.
type ProjectRow struct {
	ID                   string
	OwnerID              string
	Title                string
	Description          string
	Status               string
	CompletionPercentage float64
	Milestones           string // JSON array
	GoalID               *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Version              int
}

// ProjectToRow flattens a project.
func ProjectToRow(p *domain.Project) (ProjectRow, error) {
	milestones := make([]projectMilestoneRecord, len(p.Milestones))
	for i, m := range p.Milestones {
		milestones[i] = projectMilestoneRecord{
			Title:       m.Title,
			DueDate:     utc(m.DueDate),
			Completed:   m.Completed,
			CompletedAt: utc(m.CompletedAt),
		}
	}
	milestonesJSON, err := marshal(milestones)
	if err != nil {
		return ProjectRow{}, fmt.Errorf("encode milestones: %w", err)
	}

	return ProjectRow{
		ID:                   p.ID,
		OwnerID:              p.OwnerID,
		Title:                p.Title,
		Description:          p.Description,
		Status:               string(p.Status),
		CompletionPercentage: p.CompletionPercentage,
		Milestones:           milestonesJSON,
		GoalID:               p.GoalID,
		CreatedAt:            p.CreatedAt.UTC(),
		UpdatedAt:            p.UpdatedAt.UTC(),
		Version:              p.Version,
	}, nil
}

// Project rebuilds the project stored in the row.
func (r ProjectRow) Project() (*domain.Project, error) {
	var recs []projectMilestoneRecord
	if err := unmarshal(r.Milestones, &recs); err != nil {
		return nil, fmt.Errorf("decode milestones: %w", err)
	}
	milestones := make([]domain.ProjectMilestone, len(recs))
	for i, m := range recs {
		milestones[i] = domain.ProjectMilestone{
			Title:       m.Title,
			DueDate:     utc(m.DueDate),
			Completed:   m.Completed,
			CompletedAt: utc(m.CompletedAt),
		}
	}

	return &domain.Project{
		ID:                   r.ID,
		OwnerID:              r.OwnerID,
		Title:                r.Title,
		Description:          r.Description,
		Status:               domain.ProjectStatus(r.Status),
		CompletionPercentage: r.CompletionPercentage,
		Milestones:           milestones,
		GoalID:               r.GoalID,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
		Version:              r.Version,
	}, nil
}

// LinkedProjectRow is the column layout of the linked_projects table.
type LinkedProjectRow struct {
	ID                   string
	OwnerID              string
	BusinessID           string
	ProjectID            string
	Role                 string
	Priority             string
	Phase                string
	TargetCompletionDate *time.Time
	Dependencies         string // JSON array
	CreatedAt            time.Time
}

// LinkedProjectToRow flattens a linked-project record.
func LinkedProjectToRow(lp *domain.LinkedProject) (LinkedProjectRow, error) {
	deps := make([]projectDependencyRecord, len(lp.Dependencies))
	for i, d := range lp.Dependencies {
		deps[i] = projectDependencyRecord{ProjectID: d.ProjectID, Type: string(d.Type)}
	}
	depsJSON, err := marshal(deps)
	if err != nil {
		return LinkedProjectRow{}, fmt.Errorf("encode dependencies: %w", err)
	}

	return LinkedProjectRow{
		ID:                   lp.ID,
		OwnerID:              lp.OwnerID,
		BusinessID:           lp.BusinessID,
		ProjectID:            lp.ProjectID,
		Role:                 string(lp.Role),
		Priority:             string(lp.Priority),
		Phase:                string(lp.Phase),
		TargetCompletionDate: utc(lp.TargetCompletionDate),
		Dependencies:         depsJSON,
		CreatedAt:            lp.CreatedAt.UTC(),
	}, nil
}

// LinkedProject rebuilds the record stored in the row.
func (r LinkedProjectRow) LinkedProject() (*domain.LinkedProject, error) {
	var recs []projectDependencyRecord
	if err := unmarshal(r.Dependencies, &recs); err != nil {
		return nil, fmt.Errorf("decode dependencies: %w", err)
	}
	deps := make([]domain.ProjectDependency, len(recs))
	for i, d := range recs {
		deps[i] = domain.ProjectDependency{ProjectID: d.ProjectID, Type: domain.DependencyType(d.Type)}
	}

	return &domain.LinkedProject{
		ID:                   r.ID,
		OwnerID:              r.OwnerID,
		BusinessID:           r.BusinessID,
		ProjectID:            r.ProjectID,
		Role:                 domain.ProjectRole(r.Role),
		Priority:             domain.Level(r.Priority),
		Phase:                domain.BusinessPhase(r.Phase),
		TargetCompletionDate: utc(r.TargetCompletionDate),
		Dependencies:         deps,
		CreatedAt:            r.CreatedAt.UTC(),
	}, nil
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshal treats an empty document as an empty collection.
func unmarshal(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
