package planner

import (
	"context"
	"math"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"

	"unified-thinking/internal/errs"
	"unified-thinking/internal/types"
)

// StepSpec is the caller-supplied shape for one step of a CreatePlan call.
type StepSpec struct {
	Description      string
	RequiredTools    []string
	DependsOnStepIDs []string
}

// CreatePlan builds a step DAG for a goal from the caller-supplied steps
// under the requested strategy. SEQUENTIAL chains every step onto the previous one;
// PARALLEL leaves all steps independent; HYBRID keeps the caller-supplied
// DependsOnStepIDs as given. The resulting DAG is validated for cycles with
// the same dominikbraun/graph PreventCycles guard used for goals.
func (p *StrategicPlanner) CreatePlan(goalID string, strategy types.PlanStrategy, steps []StepSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.goals[goalID]; !ok {
		return "", errs.New("planner.create_plan", errs.NotFound, "unknown goal").WithID(goalID)
	}
	if len(steps) == 0 {
		return "", errs.New("planner.create_plan", errs.InvalidInput, "plan must have at least one step")
	}

	stepIDs := make([]string, len(steps))
	for i := range steps {
		stepIDs[i] = uuid.NewString()
	}

	built := make([]*types.Step, len(steps))
	for i, spec := range steps {
		deps := resolveStepDependencies(strategy, i, stepIDs, spec.DependsOnStepIDs)
		built[i] = &types.Step{
			ID:               stepIDs[i],
			Description:      spec.Description,
			RequiredTools:    spec.RequiredTools,
			DependsOnStepIDs: deps,
			Status:           types.StepPending,
		}
	}

	if err := validateStepDAG(built); err != nil {
		return "", errs.New("planner.create_plan", errs.InvalidInput, err.Error())
	}

	plan := &types.Plan{
		ID:       uuid.NewString(),
		GoalID:   goalID,
		Strategy: strategy,
		Steps:    built,
		Status:   types.PlanStatusPending,
	}
	p.plans[plan.ID] = plan
	return plan.ID, nil
}

// resolveStepDependencies applies the strategy's decomposition rule.
func resolveStepDependencies(strategy types.PlanStrategy, index int, stepIDs []string, explicit []string) []string {
	switch strategy {
	case types.PlanSequential:
		if index == 0 {
			return nil
		}
		return []string{stepIDs[index-1]}
	case types.PlanParallel:
		return nil
	default: // HYBRID
		return explicit
	}
}

// validateStepDAG rejects a step graph with a dependency cycle, using
// dominikbraun/graph's cycle-preventing directed graph the same way
// CreateGoal validates the goal graph.
func validateStepDAG(steps []*types.Step) error {
	g := graph.New(func(s string) string { return s }, graph.Directed(), graph.PreventCycles())
	for _, s := range steps {
		if err := g.AddVertex(s.ID); err != nil {
			return err
		}
	}
	for _, s := range steps {
		for _, dep := range s.DependsOnStepIDs {
			if err := g.AddEdge(dep, s.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plan returns a plan snapshot by id.
func (p *StrategicPlanner) Plan(id string) (*types.Plan, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	plan, ok := p.plans[id]
	if !ok {
		return nil, errs.New("planner.plan", errs.NotFound, "unknown plan").WithID(id)
	}
	cp := *plan
	cp.Steps = append([]*types.Step(nil), plan.Steps...)
	return &cp, nil
}

// StepExecutor runs one step and returns its result, or an error. It is
// supplied by the orchestrator, which owns the tool server/local reasoner
// clients.
type StepExecutor func(ctx context.Context, step *types.Step) (*types.StepResult, error)

const maxStepAttemptsDefault = 2

// ExecutePlan runs every step respecting DependsOnStepIDs, retrying a
// failed step up to maxStepAttempts times with deterministic exponential
// backoff (seeded off the step's attempt count, never off wall-clock
// jitter, so replaying the same plan produces the same backoff schedule).
// Cancellation of ctx aborts remaining steps as CANCELLED.
func (p *StrategicPlanner) ExecutePlan(ctx context.Context, planID string, maxStepAttempts int, executor StepExecutor, sleep func(time.Duration)) error {
	if maxStepAttempts <= 0 {
		maxStepAttempts = maxStepAttemptsDefault
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	p.mu.Lock()
	plan, ok := p.plans[planID]
	if !ok {
		p.mu.Unlock()
		return errs.New("planner.execute_plan", errs.NotFound, "unknown plan").WithID(planID)
	}
	plan.Status = types.PlanStatusRunning
	p.mu.Unlock()

	byID := make(map[string]*types.Step, len(plan.Steps))
	for _, s := range plan.Steps {
		byID[s.ID] = s
	}

	failed := false
	for {
		progressed := false
		allDone := true
		for _, step := range plan.Steps {
			if step.Status == types.StepCompleted || step.Status == types.StepFailed || step.Status == types.StepCancelled {
				continue
			}
			allDone = false

			if ctx.Err() != nil {
				step.Status = types.StepCancelled
				progressed = true
				continue
			}

			if !dependenciesSatisfied(step, byID) {
				continue
			}
			if dependencyFailed(step, byID) {
				step.Status = types.StepCancelled
				progressed = true
				continue
			}

			runStep(ctx, step, maxStepAttempts, executor, sleep)
			progressed = true
			if step.Status == types.StepFailed {
				failed = true
			}

			p.mu.Lock()
			recomputeGoalProgress(p.goals[plan.GoalID], plan)
			p.mu.Unlock()
		}
		if allDone {
			break
		}
		if !progressed {
			// No step could advance (all remaining are blocked on a failed
			// or cancelled dependency) — mark the rest cancelled and stop.
			for _, step := range plan.Steps {
				if step.Status == types.StepPending {
					step.Status = types.StepCancelled
				}
			}
			break
		}
	}

	p.mu.Lock()
	if failed {
		plan.Status = types.PlanStatusFailed
	} else {
		plan.Status = types.PlanStatusCompleted
	}
	p.mu.Unlock()

	if failed {
		return errs.New("planner.execute_plan", errs.Internal, "one or more steps failed").WithID(planID)
	}
	return nil
}

func dependenciesSatisfied(step *types.Step, byID map[string]*types.Step) bool {
	for _, depID := range step.DependsOnStepIDs {
		dep, ok := byID[depID]
		if !ok || dep.Status != types.StepCompleted {
			return false
		}
	}
	return true
}

func dependencyFailed(step *types.Step, byID map[string]*types.Step) bool {
	for _, depID := range step.DependsOnStepIDs {
		dep, ok := byID[depID]
		if ok && (dep.Status == types.StepFailed || dep.Status == types.StepCancelled) {
			return true
		}
	}
	return false
}

// runStep executes a step with retry, mutating its status/attempts/result
// in place.
func runStep(ctx context.Context, step *types.Step, maxAttempts int, executor StepExecutor, sleep func(time.Duration)) {
	step.Status = types.StepInProgress
	now := time.Now()
	step.StartedAt = &now

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		step.Attempts = attempt
		result, err := executor(ctx, step)
		if err == nil {
			step.Status = types.StepCompleted
			step.Result = result
			finished := time.Now()
			step.FinishedAt = &finished
			return
		}
		lastErr = err
		if attempt < maxAttempts {
			sleep(backoff(attempt))
		}
	}

	step.Status = types.StepFailed
	finished := time.Now()
	step.FinishedAt = &finished
	step.Result = &types.StepResult{Output: "", Metadata: map[string]interface{}{"error": lastErr.Error()}}
}

// backoff is a deterministic exponential schedule (no jitter): 200ms,
// 400ms, 800ms, ... capped at 5s, seeded purely off the attempt number so
// a replayed plan produces an identical schedule.
func backoff(attempt int) time.Duration {
	ms := 200 * math.Pow(2, float64(attempt-1))
	if ms > 5000 {
		ms = 5000
	}
	return time.Duration(ms) * time.Millisecond
}

// recomputeGoalProgress recomputes a goal's progress from its plan's step
// statuses: (completed + 0.5*in_progress) / total (§4.3).
func recomputeGoalProgress(g *types.Goal, plan *types.Plan) {
	if g == nil || len(plan.Steps) == 0 {
		return
	}
	var sum float64
	for _, s := range plan.Steps {
		switch s.Status {
		case types.StepCompleted:
			sum += 1
		case types.StepInProgress:
			sum += 0.5
		}
	}
	g.Progress = clamp01(sum / float64(len(plan.Steps)))
	g.UpdatedAt = time.Now()
	if g.Progress >= 1 && !g.Status.IsTerminal() {
		g.Status = types.GoalCompleted
	} else if g.Progress > 0 && g.Status == types.GoalPending {
		g.Status = types.GoalInProgress
	}
}
