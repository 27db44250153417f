package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"unified-thinking/internal/consensus"
	"unified-thinking/internal/planner"
	"unified-thinking/internal/types"
)

// toJSONContent marshals v into a single TextContent block. The teacher's
// server.go formats tool results through the claudecode/format helper;
// that package is gone here (DESIGN.md), so results are marshaled directly.
func toJSONContent(v interface{}) []mcp.Content {
	body, err := json.Marshal(v)
	if err != nil {
		return []mcp.Content{&mcp.TextContent{Text: "failed to marshal result: " + err.Error()}}
	}
	return []mcp.Content{&mcp.TextContent{Text: string(body)}}
}

// RegisterTools exposes the §6 RPC surface as MCP tools, one per query,
// planning and sci HTTP route (status and capabilities have no MCP tool),
// mirroring the teacher's internal/server.RegisterTools table.
func (g *Gateway) RegisterTools(mcpServer *mcp.Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "query",
		Description: "Submit a query to the orchestrator and receive an answer with quality, strategy, and iteration diagnostics",
	}, g.mcpQuery)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "planning.create_goal",
		Description: "Create a goal in the strategic planner's goal graph",
	}, g.mcpCreateGoal)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "planning.get_goal",
		Description: "Fetch a goal by id",
	}, g.mcpGetGoal)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "planning.create_plan",
		Description: "Decompose a goal into an executable step plan",
	}, g.mcpCreatePlan)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "planning.execute_plan",
		Description: "Execute a plan's steps honoring their dependency DAG",
	}, g.mcpExecutePlan)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "sci.register_participant",
		Description: "Register a consensus participant",
	}, g.mcpRegisterParticipant)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "sci.open_decision",
		Description: "Open a decision for consensus voting",
	}, g.mcpOpenDecision)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "sci.cast_vote",
		Description: "Cast or overwrite a participant's vote on a decision",
	}, g.mcpCastVote)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "sci.tally",
		Description: "Tally a decision's current votes against its consensus rule",
	}, g.mcpTally)
}

func (g *Gateway) mcpQuery(ctx context.Context, req *mcp.CallToolRequest, input queryRequest) (*mcp.CallToolResult, map[string]interface{}, error) {
	if err := validateQuery("gateway.mcp_query", input); err != nil {
		return nil, nil, err
	}
	if !g.acquire() {
		return nil, nil, errQueueFull()
	}
	defer g.release()

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	modality := input.Modality
	if modality == "" {
		modality = types.ModalityText
	}
	query := &types.Query{
		Text: input.Query, Modality: modality, Attachments: input.Attachments,
		UserID: input.UserID, SessionID: input.SessionID, Options: input.Options,
		CreatedAt: time.Now(),
	}

	result, err := g.orch.Process(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	out := map[string]interface{}{
		"answer": result.Answer, "quality": result.Quality, "strategy_used": result.StrategyUsed,
		"iterations": result.Iterations, "latency_ms": result.LatencyMS, "diagnostics": result.Diagnostics,
	}
	return &mcp.CallToolResult{Content: toJSONContent(out)}, out, nil
}

func (g *Gateway) mcpCreateGoal(ctx context.Context, req *mcp.CallToolRequest, input createGoalRequest) (*mcp.CallToolResult, map[string]string, error) {
	if err := validateCreateGoal("gateway.mcp_create_goal", input); err != nil {
		return nil, nil, err
	}
	id, err := g.planner.CreateGoal(planner.GoalSpec{
		Title: input.Title, Description: input.Description, Priority: input.Priority,
		ParentID: input.ParentID, DependencyIDs: input.DependencyIDs, SuccessCriteria: input.SuccessCriteria,
	})
	if err != nil {
		return nil, nil, err
	}
	out := map[string]string{"id": id}
	return &mcp.CallToolResult{Content: toJSONContent(out)}, out, nil
}

type getGoalRequest struct {
	ID string `json:"id"`
}

func (g *Gateway) mcpGetGoal(ctx context.Context, req *mcp.CallToolRequest, input getGoalRequest) (*mcp.CallToolResult, *types.Goal, error) {
	goal, err := g.planner.Goal(input.ID)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: toJSONContent(goal)}, goal, nil
}

func (g *Gateway) mcpCreatePlan(ctx context.Context, req *mcp.CallToolRequest, input createPlanRequest) (*mcp.CallToolResult, map[string]string, error) {
	if err := validateCreatePlan("gateway.mcp_create_plan", input); err != nil {
		return nil, nil, err
	}
	strategy := input.Strategy
	if strategy == "" {
		strategy = types.PlanSequential
	}
	steps := make([]planner.StepSpec, 0, len(input.Steps))
	for _, s := range input.Steps {
		steps = append(steps, planner.StepSpec{
			Description: s.Description, RequiredTools: s.RequiredTools, DependsOnStepIDs: s.DependsOnStepIDs,
		})
	}
	id, err := g.planner.CreatePlan(input.GoalID, strategy, steps)
	if err != nil {
		return nil, nil, err
	}
	out := map[string]string{"id": id}
	return &mcp.CallToolResult{Content: toJSONContent(out)}, out, nil
}

type executePlanRequest struct {
	ID string `json:"id"`
}

func (g *Gateway) mcpExecutePlan(ctx context.Context, req *mcp.CallToolRequest, input executePlanRequest) (*mcp.CallToolResult, *types.Plan, error) {
	execCtx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err := g.planner.ExecutePlan(execCtx, input.ID, 0, g.executeStep, nil); err != nil {
		plan, getErr := g.planner.Plan(input.ID)
		if getErr == nil && plan.Status == types.PlanStatusFailed {
			return &mcp.CallToolResult{Content: toJSONContent(plan)}, plan, nil
		}
		return nil, nil, err
	}
	plan, err := g.planner.Plan(input.ID)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: toJSONContent(plan)}, plan, nil
}

func (g *Gateway) mcpRegisterParticipant(ctx context.Context, req *mcp.CallToolRequest, input registerParticipantRequest) (*mcp.CallToolResult, map[string]string, error) {
	id, err := g.consensus.RegisterParticipant(input.Name, input.Role, input.Verified)
	if err != nil {
		return nil, nil, err
	}
	out := map[string]string{"id": id}
	return &mcp.CallToolResult{Content: toJSONContent(out)}, out, nil
}

func (g *Gateway) mcpOpenDecision(ctx context.Context, req *mcp.CallToolRequest, input openDecisionRequest) (*mcp.CallToolResult, map[string]string, error) {
	if err := validateOpenDecision("gateway.mcp_open_decision", input); err != nil {
		return nil, nil, err
	}
	id, err := g.consensus.OpenDecision(consensus.OpenDecisionSpec{
		Title: input.Title, Description: input.Description, Type: input.Type,
		Criticality: input.Criticality, RecommendedOption: input.RecommendedOption,
		RequiredRoles: input.RequiredRoles, ConsensusType: input.ConsensusType,
		Deadline: time.Now().Add(time.Duration(input.DeadlineMS) * time.Millisecond),
	})
	if err != nil {
		return nil, nil, err
	}
	out := map[string]string{"id": id}
	return &mcp.CallToolResult{Content: toJSONContent(out)}, out, nil
}

func (g *Gateway) mcpCastVote(ctx context.Context, req *mcp.CallToolRequest, input castVoteRequest) (*mcp.CallToolResult, map[string]string, error) {
	if err := validateCastVote("gateway.mcp_cast_vote", input); err != nil {
		return nil, nil, err
	}
	if err := g.consensus.CastVote(input.DecisionID, input.ParticipantID, input.Choice, input.Rationale); err != nil {
		return nil, nil, err
	}
	out := map[string]string{"status": "recorded"}
	return &mcp.CallToolResult{Content: toJSONContent(out)}, out, nil
}

type tallyRequest struct {
	DecisionID string `json:"decision_id"`
}

func (g *Gateway) mcpTally(ctx context.Context, req *mcp.CallToolRequest, input tallyRequest) (*mcp.CallToolResult, *consensus.TallyResult, error) {
	result, err := g.consensus.Tally(input.DecisionID)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: toJSONContent(result)}, &result, nil
}
