package planner

import (
	"time"

	"github.com/google/uuid"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// RecordMilestone attaches a dated checkpoint to a goal.
func (p *StrategicPlanner) RecordMilestone(goalID, title string, targetDate time.Time, criteria []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.goals[goalID]; !ok {
		return "", errs.New("planner.record_milestone", errs.NotFound, "unknown goal").WithID(goalID)
	}

	m := &types.Milestone{
		ID:         uuid.NewString(),
		GoalID:     goalID,
		Title:      title,
		TargetDate: targetDate,
		Criteria:   criteria,
	}
	p.milestones[m.ID] = m
	return m.ID, nil
}

// MilestoneCheck is CheckMilestone's verdict.
type MilestoneCheck struct {
	Reached  bool
	Overdue  bool
	Criteria map[string]bool
}

// CheckMilestone reports whether a milestone's goal is COMPLETED, whether
// its target date has passed without that, and each listed criterion as
// reached exactly when the goal is COMPLETED. Criteria are not matched
// against the goal's SuccessCriteria.
func (p *StrategicPlanner) CheckMilestone(id string, now time.Time) (*MilestoneCheck, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.milestones[id]
	if !ok {
		return nil, errs.New("planner.check_milestone", errs.NotFound, "unknown milestone").WithID(id)
	}
	g, ok := p.goals[m.GoalID]
	if !ok {
		return nil, errs.New("planner.check_milestone", errs.NotFound, "milestone's goal no longer exists").WithID(m.GoalID)
	}

	criteria := make(map[string]bool, len(m.Criteria))
	for _, c := range m.Criteria {
		criteria[c] = g.Status == types.GoalCompleted
	}

	return &MilestoneCheck{
		Reached:  g.Status == types.GoalCompleted,
		Overdue:  now.After(m.TargetDate) && g.Status != types.GoalCompleted,
		Criteria: criteria,
	}, nil
}
