// Package planner implements the strategic planner: hierarchical goals with
// an acyclic dependency graph, plan decomposition into a step DAG, step
// execution with retry/backoff, scenario simulation, and hypothesis
// testing with a Bayesian posterior update.
package planner

import (
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// StrategicPlanner owns the goal graph, the plans derived from it, and the
// scenario/hypothesis registries. Mirrors the teacher's GraphController:
// a single lock-protected registry keyed by id, plus a dominikbraun/graph
// instance used purely for structural invariants (here, cycle rejection).
type StrategicPlanner struct {
	mu sync.RWMutex

	goals     map[string]*types.Goal
	goalGraph graph.Graph[string, string]

	plans       map[string]*types.Plan
	scenarios   map[string]*types.Scenario
	hypotheses  map[string]*types.Hypothesis
	milestones  map[string]*types.Milestone

	clock func() time.Time
}

func goalHash(id string) string { return id }

// NewStrategicPlanner constructs an empty planner.
func NewStrategicPlanner() *StrategicPlanner {
	return &StrategicPlanner{
		goals:      make(map[string]*types.Goal),
		goalGraph:  graph.New(goalHash, graph.Directed(), graph.PreventCycles()),
		plans:      make(map[string]*types.Plan),
		scenarios:  make(map[string]*types.Scenario),
		hypotheses: make(map[string]*types.Hypothesis),
		milestones: make(map[string]*types.Milestone),
		clock:      time.Now,
	}
}

// GoalSpec is the caller-supplied shape for CreateGoal.
type GoalSpec struct {
	Title           string
	Description     string
	Priority        types.GoalPriority
	ParentID        string
	DependencyIDs   []string
	SuccessCriteria []string
}

// CreateGoal registers a new goal and wires its dependency edges into the
// goal graph. A dependency that would close a cycle is rejected with
// INVALID_INPUT — dominikbraun/graph's PreventCycles option enforces this
// structurally rather than via a manual DFS (§4.3 "goal graph must remain
// acyclic").
func (p *StrategicPlanner) CreateGoal(spec GoalSpec) (string, error) {
	if spec.Title == "" {
		return "", errs.New("planner.create_goal", errs.InvalidInput, "title is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	g := &types.Goal{
		ID:              uuid.NewString(),
		Title:           spec.Title,
		Description:     spec.Description,
		Priority:        spec.Priority,
		Status:          types.GoalPending,
		ParentID:        spec.ParentID,
		DependencyIDs:   spec.DependencyIDs,
		SuccessCriteria: spec.SuccessCriteria,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if g.Priority == "" {
		g.Priority = types.PriorityMedium
	}

	if err := p.goalGraph.AddVertex(g.ID); err != nil {
		return "", errs.Wrap("planner.create_goal", errs.Internal, err)
	}

	for _, depID := range spec.DependencyIDs {
		if _, ok := p.goals[depID]; !ok {
			p.goalGraph.RemoveVertex(g.ID)
			delete(p.goals, g.ID)
			return "", errs.New("planner.create_goal", errs.InvalidInput, "unknown dependency").WithID(depID)
		}
		if err := p.goalGraph.AddEdge(depID, g.ID); err != nil {
			p.goalGraph.RemoveVertex(g.ID)
			return "", errs.New("planner.create_goal", errs.InvalidInput, "dependency would create a cycle: "+err.Error())
		}
	}

	p.goals[g.ID] = g
	return g.ID, nil
}

// Goal returns a goal snapshot by id.
func (p *StrategicPlanner) Goal(id string) (*types.Goal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	g, ok := p.goals[id]
	if !ok {
		return nil, errs.New("planner.goal", errs.NotFound, "unknown goal").WithID(id)
	}
	cp := *g
	return &cp, nil
}

// UpdateGoalProgress sets progress in [0,1] and recomputes status, clamping
// and marking COMPLETED at progress==1. A goal already in a terminal state
// is refused with PRECONDITION.
func (p *StrategicPlanner) UpdateGoalProgress(id string, progress float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.goals[id]
	if !ok {
		return errs.New("planner.update_goal_progress", errs.NotFound, "unknown goal").WithID(id)
	}
	if g.Status.IsTerminal() {
		return errs.New("planner.update_goal_progress", errs.Precondition, "goal is in a terminal state").WithID(id)
	}

	g.Progress = clamp01(progress)
	g.UpdatedAt = p.clock()
	switch {
	case g.Progress >= 1:
		g.Status = types.GoalCompleted
	case g.Progress > 0:
		g.Status = types.GoalInProgress
	}
	return nil
}

// SetGoalStatus transitions a goal directly (e.g. to FAILED, PAUSED,
// CANCELLED).
func (p *StrategicPlanner) SetGoalStatus(id string, status types.GoalStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.goals[id]
	if !ok {
		return errs.New("planner.set_goal_status", errs.NotFound, "unknown goal").WithID(id)
	}
	g.Status = status
	g.UpdatedAt = p.clock()
	return nil
}

// ListExecutable returns every PENDING goal whose dependencies have all
// reached COMPLETED — the frontier a scheduler may start work on.
func (p *StrategicPlanner) ListExecutable() []*types.Goal {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*types.Goal
	for _, g := range p.goals {
		if g.Status != types.GoalPending {
			continue
		}
		ready := true
		for _, depID := range g.DependencyIDs {
			dep, ok := p.goals[depID]
			if !ok || dep.Status != types.GoalCompleted {
				ready = false
				break
			}
		}
		if ready {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
