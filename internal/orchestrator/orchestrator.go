// Package orchestrator implements the end-to-end request handler (§4.4):
// classify, analyze, gate on consensus, select and dispatch a workflow,
// evaluate and refine, then persist the episode. It is the adaptation of
// the teacher's orchestration.Orchestrator (workflow registry + executor)
// retargeted from an arbitrary tool-chaining DAG to the fixed
// classify->dispatch->refine loop this spec names.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"unified-thinking/internal/consensus"
	"unified-thinking/internal/errs"
	"unified-thinking/internal/localreasoner"
	"unified-thinking/internal/memstore"
	"unified-thinking/internal/metacognition"
	"unified-thinking/internal/toolserver"
	"unified-thinking/internal/types"
)

// ToolCaller is the subset of toolserver.Client the orchestrator depends
// on, kept as an interface so tests can substitute a fake without an
// httptest server.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, params map[string]interface{}) (*toolserver.CallResult, error)
	Health(ctx context.Context) toolserver.Status
}

// LocalProcessor is the subset of localreasoner.Client the orchestrator
// depends on.
type LocalProcessor interface {
	Process(ctx context.Context, req localreasoner.ProcessRequest) (*localreasoner.ProcessResponse, error)
}

// ConsensusGate is the subset of consensus.ConsensusEngine the orchestrator
// depends on for its pre-dispatch gate.
type ConsensusGate interface {
	HasRole(role types.ParticipantRole) bool
	OpenDecision(spec consensus.OpenDecisionSpec) (string, error)
	Tally(decisionID string) (consensus.TallyResult, error)
	ExpireIfOverdue(decisionID string) (consensus.TallyResult, error)
}

// Options tunes orchestrator behavior from process configuration (§6).
type Options struct {
	QualityThreshold    float64
	MaxIterations       int
	ComplexityThreshold float64
	ConsensusDeadline   time.Duration
	ConsensusType       types.ConsensusType
	Capabilities        map[string]string
}

// ProcessResult is process()'s public contract (§4.4).
type ProcessResult struct {
	Answer       string                 `json:"answer"`
	Quality      float64                `json:"quality"`
	StrategyUsed string                 `json:"strategy_used"`
	Iterations   int                    `json:"iterations"`
	LatencyMS    int64                  `json:"latency_ms"`
	Diagnostics  map[string]interface{} `json:"diagnostics,omitempty"`
}

// Orchestrator is the request handler. It holds no per-request mutable
// state of its own; RecentEpisodes/backends snapshots are read fresh on
// every Process call.
type Orchestrator struct {
	meta         *metacognition.MetaCognition
	tools        ToolCaller
	local        LocalProcessor
	localEnabled bool
	memory       memstore.Store
	gate         ConsensusGate
	backends     []metacognition.Backend
	opts         Options
	clock        func() time.Time
}

// NewOrchestrator constructs an Orchestrator. gate may be nil, in which
// case the consensus gate is always skipped (treated as approved).
func NewOrchestrator(meta *metacognition.MetaCognition, tools ToolCaller, local LocalProcessor, localEnabled bool, memory memstore.Store, gate ConsensusGate, backends []metacognition.Backend, opts Options) *Orchestrator {
	if opts.QualityThreshold <= 0 {
		opts.QualityThreshold = 0.7
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 3
	}
	if opts.ComplexityThreshold <= 0 {
		opts.ComplexityThreshold = 0.5
	}
	if opts.ConsensusDeadline <= 0 {
		opts.ConsensusDeadline = 60 * time.Second
	}
	if opts.ConsensusType == "" {
		opts.ConsensusType = types.ConsensusWeighted
	}
	return &Orchestrator{
		meta: meta, tools: tools, local: local, localEnabled: localEnabled,
		memory: memory, gate: gate, backends: backends, opts: opts,
		clock: time.Now,
	}
}

// Process runs one request through the full classify/analyze/gate/
// dispatch/evaluate/refine/persist pipeline (§4.4 algorithm).
func (o *Orchestrator) Process(ctx context.Context, query *types.Query) (*ProcessResult, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, errs.New("orchestrator.process", errs.InvalidInput, "query.text is empty")
	}

	start := o.clock()
	diagnostics := map[string]interface{}{}

	recents, _ := o.memory.Recent(ctx, query.SessionID, 10)
	analysisCtx := &metacognition.AnalysisContext{
		RecentEpisodes:   recents,
		Backends:         o.backends,
		SessionStartedAt: query.CreatedAt,
	}

	// 1. Classify.
	complexity := metacognition.ClassifyComplexity(query.Text, analysisCtx)
	diagnostics["complexity"] = complexity

	// 2. Analyze.
	state, err := o.meta.Analyze(query, analysisCtx)
	if err != nil {
		return nil, err
	}

	// 3. Consensus gate. MetaState carries no criticality field (see
	// DESIGN.md decision #6); query complexity is used as the criticality
	// proxy driving the gate and the ensemble trigger alike.
	criticality := complexity
	if query.Options.ConsensusRequired || (criticality >= 0.75 && o.gate != nil && o.gate.HasRole(types.RolePrimaryUser)) {
		approved, reason := o.runConsensusGate(query, criticality)
		diagnostics["consensus_rationale"] = reason
		if !approved {
			result := &ProcessResult{
				StrategyUsed: "rejected_by_consensus",
				Quality:      0,
				Iterations:   0,
				LatencyMS:    time.Since(start).Milliseconds(),
				Diagnostics:  diagnostics,
			}
			o.persist(ctx, query, result, state)
			return result, nil
		}
	}

	route := o.meta.Route(state, o.backends, metacognition.RouteInput{
		QueryText:     query.Text,
		Modality:      query.Modality,
		Criticality:   criticality,
		AllowEnsemble: query.Options.AllowEnsemble,
	}, analysisCtx)
	diagnostics["route_rationale"] = route.Rationale

	// 4 & 5. Select workflow, dispatch, evaluate and refine.
	threshold := query.Options.QualityThreshold
	if threshold <= 0 {
		threshold = o.opts.QualityThreshold
	}
	maxIterations := query.Options.MaxIterations
	if maxIterations <= 0 {
		maxIterations = o.opts.MaxIterations
	}

	workflowName, answer, quality, iterations, iterDiag := o.runWorkflow(ctx, query, state, route, complexity, threshold, maxIterations)
	diagnostics["iterations_detail"] = iterDiag

	result := &ProcessResult{
		Answer:       answer,
		Quality:      quality,
		StrategyUsed: workflowName,
		Iterations:   iterations,
		LatencyMS:    time.Since(start).Milliseconds(),
		Diagnostics:  diagnostics,
	}

	// 6. Persist.
	o.persist(ctx, query, result, state)
	return result, nil
}

// capability resolves a capability tag to a tool-server tool name,
// defaulting to the tag itself when no override is configured.
func (o *Orchestrator) capability(tag string) string {
	if name, ok := o.opts.Capabilities[tag]; ok && name != "" {
		return name
	}
	return tag
}
