package domain

import (
	"fmt"
	"strings"
)

// LinkKind names the entity a task is linked to.
type LinkKind string

const (
	LinkKindNone     LinkKind = ""
	LinkKindProject  LinkKind = "project"
	LinkKindGoal     LinkKind = "goal"
	LinkKindBusiness LinkKind = "business"
)

// Link is the target a task contributes to. A nil Link means the task is unlinked.
//
// The interface is sealed: ProjectLink, GoalLink and BusinessLink are the only variants,
// and each is built through its constructor so invalid targets never reach the engine.
type Link interface {
	Kind() LinkKind
	TargetID() string
	isLink()
}

// ProjectLink links a task to a project, optionally to one of its milestones.
type ProjectLink struct {
	ProjectID string
	Milestone *int
}

// GoalLink links a task to a goal, optionally to one of its milestones.
type GoalLink struct {
	GoalID    string
	Milestone *int
}

// BusinessLink links a task to a business.
type BusinessLink struct {
	BusinessID string
}

func (ProjectLink) Kind() LinkKind { return LinkKindProject }
func (GoalLink) Kind() LinkKind { return LinkKindGoal }
func (BusinessLink) Kind() LinkKind { return LinkKindBusiness }
func (l ProjectLink) TargetID() string { return l.ProjectID }
func (l GoalLink) TargetID() string { return l.GoalID }
func (l BusinessLink) TargetID() string { return l.BusinessID }
func (ProjectLink) isLink()  {}
func (GoalLink) isLink()     {}
func (BusinessLink) isLink() {}

func validateTarget(kind LinkKind, id string, milestone *int) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s link requires an id", ErrInvalidLink, kind)
	}
	if milestone != nil && *milestone < 0 {
		return fmt.Errorf("%w: milestone index %d", ErrInvalidLink, *milestone)
	}
	return nil
}

// NewProjectLink builds a validated project link.
func NewProjectLink(projectID string, milestone *int) (ProjectLink, error) {
	if err := validateTarget(LinkKindProject, projectID, milestone); err != nil {
		return ProjectLink{}, err
	}
	return ProjectLink{ProjectID: strings.TrimSpace(projectID), Milestone: milestone}, nil
}

// NewGoalLink builds a validated goal link.
func NewGoalLink(goalID string, milestone *int) (GoalLink, error) {
	if err := validateTarget(LinkKindGoal, goalID, milestone); err != nil {
		return GoalLink{}, err
	}
	return GoalLink{GoalID: strings.TrimSpace(goalID), Milestone: milestone}, nil
}

// NewBusinessLink builds a validated business link.
func NewBusinessLink(businessID string) (BusinessLink, error) {
	if err := validateTarget(LinkKindBusiness, businessID, nil); err != nil {
		return BusinessLink{}, err
	}
	return BusinessLink{BusinessID: strings.TrimSpace(businessID)}, nil
}

// LinkParts flattens a link into its storage columns.
func LinkParts(l Link) (kind LinkKind, id string, milestone *int) {
	switch v := l.(type) {
	case ProjectLink:
		return LinkKindProject, v.ProjectID, v.Milestone
	case GoalLink:
		return LinkKindGoal, v.GoalID, v.Milestone
	case BusinessLink:
		return LinkKindBusiness, v.BusinessID, nil
	default:
		return LinkKindNone, "", nil
	}
}

// LinkFromParts rebuilds a link from storage columns or request fields.
// An empty kind yields a nil Link.
func LinkFromParts(kind string, id string, milestone *int) (Link, error) {
	var (
		link Link
		err  error
	)

	switch LinkKind(strings.ToLower(strings.TrimSpace(kind))) {
	case LinkKindNone:
		return nil, nil
	case LinkKindProject:
		link, err = NewProjectLink(id, milestone)
	case LinkKindGoal:
		link, err = NewGoalLink(id, milestone)
	case LinkKindBusiness:
		if milestone != nil {
			return nil, fmt.Errorf("%w: business links have no milestones", ErrInvalidLink)
		}
		link, err = NewBusinessLink(id)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidLink, kind)
	}

	if err != nil {
		return nil, err
	}
	return link, nil
}

// LinkedGoalID returns the goal a link points at, if any.
func LinkedGoalID(l Link) (string, bool) {
	if g, ok := l.(GoalLink); ok {
		return g.GoalID, true
	}
	return "", false
}

// LinkedProjectID returns the project a link points at, if any.
func LinkedProjectID(l Link) (string, bool) {
	if p, ok := l.(ProjectLink); ok {
		return p.ProjectID, true
	}
	return "", false
}
