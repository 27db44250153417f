// Package gateway implements the ingress layer (§4.5 APIGateway): schema
// validation, per-caller rate limiting, request backpressure, and response
// shaping for two equivalent surfaces — a gin-based JSON/HTTP API and an
// MCP tool surface — over the same underlying orchestrator/planner/
// consensus engine. Grounded on the teacher's internal/server (the
// tool-registration-table pattern reused here for the MCP surface) plus
// codeready-toolchain-tarsy's gin.Engine usage for the HTTP surface, which
// the teacher itself never serves.
package gateway

import (
	"context"
	"time"

	"unified-thinking/internal/consensus"
	"unified-thinking/internal/orchestrator"
	"unified-thinking/internal/planner"
)

// Gateway wires the orchestrator, planner, and consensus engine to both
// ingress surfaces. It holds no business logic of its own beyond request
// shaping, rate limiting, and backpressure.
type Gateway struct {
	orch      *orchestrator.Orchestrator
	planner   *planner.StrategicPlanner
	consensus *consensus.ConsensusEngine

	tools        orchestrator.ToolCaller
	local        orchestrator.LocalProcessor
	localEnabled bool

	capabilities map[string]string

	limiter        *RateLimiter
	requestTimeout time.Duration
	slots          chan struct{}
}

// Options configures backpressure and rate limiting.
type Options struct {
	RequestTimeout        time.Duration
	MaxConcurrentRequests int
	RateLimitPerSecond    float64
	RateLimitBurst        float64
	Capabilities          map[string]string
}

// NewGateway constructs a Gateway. tools/local may be nil (health reports a
// nil tool server as down; the local reasoner is reported from localEnabled).
func NewGateway(
	orch *orchestrator.Orchestrator,
	plan *planner.StrategicPlanner,
	engine *consensus.ConsensusEngine,
	tools orchestrator.ToolCaller,
	local orchestrator.LocalProcessor,
	localEnabled bool,
	opts Options,
) *Gateway {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxConcurrentRequests <= 0 {
		opts.MaxConcurrentRequests = 100
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}
	return &Gateway{
		orch:           orch,
		planner:        plan,
		consensus:      engine,
		tools:          tools,
		local:          local,
		localEnabled:   localEnabled,
		capabilities:   opts.Capabilities,
		limiter:        NewRateLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst),
		requestTimeout: opts.RequestTimeout,
		slots:          make(chan struct{}, opts.MaxConcurrentRequests),
	}
}

// acquire reserves a request slot, reporting false when the queue is full
// (§5 Backpressure: reject with BACKEND_UNAVAILABLE and a retry-after
// rather than queuing indefinitely).
func (g *Gateway) acquire() bool {
	select {
	case g.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g *Gateway) release() {
	<-g.slots
}

// queueDepth reports in-flight request count for /v1/status.
func (g *Gateway) queueDepth() int {
	return len(g.slots)
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.requestTimeout)
}
