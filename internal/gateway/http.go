package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"unified-thinking/internal/consensus"
	"unified-thinking/internal/errs"
	"unified-thinking/internal/planner"
	"unified-thinking/internal/toolserver"
	"unified-thinking/internal/types"
)

// RegisterRoutes mounts the §6 HTTP/JSON surface onto router.
func (g *Gateway) RegisterRoutes(router *gin.Engine) {
	router.Use(g.rateLimitMiddleware())

	v1 := router.Group("/v1")
	v1.POST("/query", g.handleQuery)
	v1.GET("/status", g.handleStatus)
	v1.GET("/capabilities", g.handleCapabilities)

	planningGroup := v1.Group("/planning")
	planningGroup.POST("/goals", g.handleCreateGoal)
	planningGroup.GET("/goals/:id", g.handleGetGoal)
	planningGroup.POST("/plans", g.handleCreatePlan)
	planningGroup.POST("/plans/:id/execute", g.handleExecutePlan)

	sciGroup := v1.Group("/sci")
	sciGroup.POST("/participants", g.handleRegisterParticipant)
	sciGroup.POST("/decisions", g.handleOpenDecision)
	sciGroup.POST("/votes", g.handleCastVote)
	sciGroup.POST("/decisions/:id/tally", g.handleTally)
}

func (g *Gateway) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.Query("user_id")
		if caller == "" {
			caller = c.ClientIP()
		}
		if !g.limiter.Allow(caller) {
			status, env := envelopeFor(errs.New("gateway.rate_limit", errs.BackendUnavailable, "rate limit exceeded"))
			c.AbortWithStatusJSON(status, env)
			return
		}
		c.Next()
	}
}

func writeError(c *gin.Context, err error) {
	status, env := envelopeFor(err)
	c.JSON(status, env)
}

// queryRequest is POST /v1/query's body (§6).
type queryRequest struct {
	Query       string             `json:"query" binding:"required"`
	Options     types.QueryOptions `json:"options"`
	UserID      string             `json:"user_id"`
	SessionID   string             `json:"session_id"`
	Attachments []types.Attachment `json:"attachments"`
	Modality    types.Modality     `json:"modality"`
}

func (g *Gateway) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New("gateway.query", errs.InvalidInput, err.Error()))
		return
	}
	if err := validateQuery("gateway.query", req); err != nil {
		writeError(c, err)
		return
	}

	if !g.acquire() {
		writeError(c, errQueueFull())
		return
	}
	defer g.release()

	ctx, cancel := g.withTimeout(c.Request.Context())
	defer cancel()

	modality := req.Modality
	if modality == "" {
		modality = types.ModalityText
	}

	query := &types.Query{
		Text:        req.Query,
		Modality:    modality,
		Attachments: req.Attachments,
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Options:     req.Options,
		CreatedAt:   time.Now(),
	}

	result, err := g.orch.Process(ctx, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) handleStatus(c *gin.Context) {
	toolStatus := toolserver.StatusDown
	if g.tools != nil {
		toolStatus = g.tools.Health(c.Request.Context())
	}
	localStatus := "disabled"
	if g.localEnabled {
		localStatus = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"queue_depth":  g.queueDepth(),
		"backends": gin.H{
			"tool_server":    string(toolStatus),
			"local_reasoner": localStatus,
		},
	})
}

func (g *Gateway) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"capabilities": g.capabilities})
}

// --- planning routes ---

type createGoalRequest struct {
	Title           string             `json:"title" binding:"required"`
	Description     string             `json:"description"`
	Priority        types.GoalPriority `json:"priority"`
	ParentID        string             `json:"parent_id"`
	DependencyIDs   []string           `json:"dependency_ids"`
	SuccessCriteria []string           `json:"success_criteria"`
}

func (g *Gateway) handleCreateGoal(c *gin.Context) {
	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New("gateway.create_goal", errs.InvalidInput, err.Error()))
		return
	}
	if err := validateCreateGoal("gateway.create_goal", req); err != nil {
		writeError(c, err)
		return
	}
	id, err := g.planner.CreateGoal(planner.GoalSpec{
		Title: req.Title, Description: req.Description, Priority: req.Priority,
		ParentID: req.ParentID, DependencyIDs: req.DependencyIDs, SuccessCriteria: req.SuccessCriteria,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (g *Gateway) handleGetGoal(c *gin.Context) {
	goal, err := g.planner.Goal(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

type createPlanRequest struct {
	GoalID   string             `json:"goal_id" binding:"required"`
	Strategy types.PlanStrategy `json:"strategy"`
	Steps    []planStepRequest  `json:"steps" binding:"required"`
}

type planStepRequest struct {
	Description      string   `json:"description"`
	RequiredTools    []string `json:"required_tools"`
	DependsOnStepIDs []string `json:"depends_on_step_ids"`
}

func (g *Gateway) handleCreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New("gateway.create_plan", errs.InvalidInput, err.Error()))
		return
	}
	if err := validateCreatePlan("gateway.create_plan", req); err != nil {
		writeError(c, err)
		return
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = types.PlanSequential
	}
	steps := make([]planner.StepSpec, 0, len(req.Steps))
	for _, s := range req.Steps {
		steps = append(steps, planner.StepSpec{
			Description: s.Description, RequiredTools: s.RequiredTools, DependsOnStepIDs: s.DependsOnStepIDs,
		})
	}
	id, err := g.planner.CreatePlan(req.GoalID, strategy, steps)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (g *Gateway) handleExecutePlan(c *gin.Context) {
	ctx, cancel := g.withTimeout(c.Request.Context())
	defer cancel()

	err := g.planner.ExecutePlan(ctx, c.Param("id"), 0, g.executeStep, nil)
	if err != nil && errs.KindOf(err) != errs.Internal {
		writeError(c, err)
		return
	}
	plan, getErr := g.planner.Plan(c.Param("id"))
	if getErr != nil {
		writeError(c, getErr)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// executeStep is the default StepExecutor: it calls each of a step's
// required tools by capability tag and concatenates their text output,
// mirroring the orchestrator's own capability-tag resolution.
func (g *Gateway) executeStep(ctx context.Context, step *types.Step) (*types.StepResult, error) {
	if g.tools == nil {
		return nil, errs.New("gateway.execute_step", errs.BackendUnavailable, "no tool server configured")
	}
	output := ""
	for _, tag := range step.RequiredTools {
		res, err := g.tools.CallTool(ctx, tag, map[string]interface{}{"step": step.Description})
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, errs.New("gateway.execute_step", errs.BackendUnavailable, res.Error)
		}
		if text, ok := res.Result["text"].(string); ok {
			output += text + "\n"
		}
	}
	return &types.StepResult{Output: output}, nil
}

// --- SCI (social/consensus interface) routes ---

type registerParticipantRequest struct {
	Name     string                `json:"name" binding:"required"`
	Role     types.ParticipantRole `json:"role" binding:"required"`
	Verified bool                  `json:"verified"`
}

func (g *Gateway) handleRegisterParticipant(c *gin.Context) {
	var req registerParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New("gateway.register_participant", errs.InvalidInput, err.Error()))
		return
	}
	id, err := g.consensus.RegisterParticipant(req.Name, req.Role, req.Verified)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type openDecisionRequest struct {
	Title             string                  `json:"title" binding:"required"`
	Description       string                  `json:"description"`
	Type              string                  `json:"type"`
	Criticality       float64                 `json:"criticality"`
	RecommendedOption string                  `json:"recommended_option"`
	RequiredRoles     []types.ParticipantRole `json:"required_roles"`
	ConsensusType     types.ConsensusType     `json:"consensus_type"`
	DeadlineMS        int64                   `json:"deadline_ms" binding:"required"`
}

func (g *Gateway) handleOpenDecision(c *gin.Context) {
	var req openDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New("gateway.open_decision", errs.InvalidInput, err.Error()))
		return
	}
	if err := validateOpenDecision("gateway.open_decision", req); err != nil {
		writeError(c, err)
		return
	}
	id, err := g.consensus.OpenDecision(consensus.OpenDecisionSpec{
		Title: req.Title, Description: req.Description, Type: req.Type,
		Criticality: req.Criticality, RecommendedOption: req.RecommendedOption,
		RequiredRoles: req.RequiredRoles, ConsensusType: req.ConsensusType,
		Deadline: time.Now().Add(time.Duration(req.DeadlineMS) * time.Millisecond),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type castVoteRequest struct {
	DecisionID    string           `json:"decision_id" binding:"required"`
	ParticipantID string           `json:"participant_id" binding:"required"`
	Choice        types.VoteChoice `json:"choice" binding:"required"`
	Rationale     string           `json:"rationale"`
}

func (g *Gateway) handleCastVote(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errs.New("gateway.cast_vote", errs.InvalidInput, err.Error()))
		return
	}
	if err := validateCastVote("gateway.cast_vote", req); err != nil {
		writeError(c, err)
		return
	}
	if err := g.consensus.CastVote(req.DecisionID, req.ParticipantID, req.Choice, req.Rationale); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (g *Gateway) handleTally(c *gin.Context) {
	result, err := g.consensus.Tally(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
