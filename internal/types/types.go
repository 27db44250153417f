// Package types defines the value records shared across the orchestration core:
// queries, meta-cognitive scratchpads, planning entities, consensus entities,
// and episodes. All identifiers are opaque, UUID-shaped strings.
package types

import "time"

// Modality classifies the medium of a query.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
	ModalityMixed Modality = "mixed"
)

// QueryOptions tunes how a query is routed, refined, and gated.
type QueryOptions struct {
	QualityThreshold  float64 `json:"quality_threshold"`
	MaxIterations     int     `json:"max_iterations"`
	StrategyHint      string  `json:"strategy_hint,omitempty"`
	AllowEnsemble     bool    `json:"allow_ensemble"`
	ConsensusRequired bool    `json:"consensus_required"`
}

// DefaultQueryOptions returns the spec's defaults: quality_threshold=0.7,
// max_iterations=3.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		QualityThreshold: 0.7,
		MaxIterations:    3,
		AllowEnsemble:    true,
	}
}

// Attachment is a non-text payload reference carried alongside a query.
type Attachment struct {
	Kind string `json:"kind"`
	URI  string `json:"uri"`
}

// Query is the unit of work submitted to the orchestrator.
type Query struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Modality    Modality     `json:"modality"`
	Attachments []Attachment `json:"attachments,omitempty"`
	UserID      string       `json:"user_id,omitempty"`
	SessionID   string       `json:"session_id,omitempty"`
	Options     QueryOptions `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IgnoranceType tags the kind of epistemic gap a MetaState carries.
type IgnoranceType string

const (
	IgnoranceKnownUnknowns   IgnoranceType = "KNOWN_UNKNOWNS"
	IgnoranceUnknownUnknowns IgnoranceType = "UNKNOWN_UNKNOWNS"
	IgnoranceEpistemic       IgnoranceType = "EPISTEMIC"
	IgnoranceAleatory        IgnoranceType = "ALEATORY"
)

// Ignorance scores how much the system does not know about a query.
type Ignorance struct {
	Type  IgnoranceType `json:"type"`
	Score float64       `json:"score"`
	Gaps  []string      `json:"gaps,omitempty"`
}

// SelfDoubt is the five-dimension confidence breakdown whose composite
// drives strategy selection. See MetaState's invariant for the formula.
type SelfDoubt struct {
	Confidence        float64 `json:"confidence"`
	ReasoningClarity  float64 `json:"reasoning_clarity"`
	EvidenceStrength  float64 `json:"evidence_strength"`
	AlternativesCount float64 `json:"alternatives_count"`
	Uncertainty       float64 `json:"uncertainty"`
	Composite         float64 `json:"composite"`
}

// Temporal is the session-freshness snapshot folded into a MetaState.
type Temporal struct {
	SessionAgeS      float64 `json:"session_age_s"`
	ContextFreshness float64 `json:"context_freshness"`
	Interactions     int     `json:"interactions"`
}

// Strategy is the routing posture MetaCognition.Analyze assigns a query.
type Strategy string

const (
	StrategyConservative Strategy = "CONSERVATIVE"
	StrategyExploratory  Strategy = "EXPLORATORY"
	StrategyBalanced     Strategy = "BALANCED"
	StrategyAdaptive     Strategy = "ADAPTIVE"
)

// MetaState is the per-query scratchpad MetaCognition.Analyze produces.
// It is created per-query and discarded after the episode is recorded.
type MetaState struct {
	Ignorance Ignorance `json:"ignorance"`
	SelfDoubt SelfDoubt `json:"self_doubt"`
	Narrative string    `json:"narrative"`
	Temporal  Temporal  `json:"temporal"`
	Strategy  Strategy  `json:"strategy"`
}

// GoalPriority ranks goals for scheduling and reporting.
type GoalPriority string

const (
	PriorityCritical GoalPriority = "CRITICAL"
	PriorityHigh     GoalPriority = "HIGH"
	PriorityMedium   GoalPriority = "MEDIUM"
	PriorityLow      GoalPriority = "LOW"
)

// GoalStatus is the lifecycle state of a Goal.
type GoalStatus string

const (
	GoalPending    GoalStatus = "PENDING"
	GoalInProgress GoalStatus = "IN_PROGRESS"
	GoalCompleted  GoalStatus = "COMPLETED"
	GoalFailed     GoalStatus = "FAILED"
	GoalPaused     GoalStatus = "PAUSED"
	GoalCancelled  GoalStatus = "CANCELLED"
)

// IsTerminal reports whether status is one of COMPLETED|FAILED|CANCELLED.
func (s GoalStatus) IsTerminal() bool {
	return s == GoalCompleted || s == GoalFailed || s == GoalCancelled
}

// Goal is a node in the hierarchical goal graph. Hierarchy (ParentID) and
// DependencyIDs must each remain acyclic.
type Goal struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Priority        GoalPriority `json:"priority"`
	Status          GoalStatus   `json:"status"`
	ParentID        string       `json:"parent_id,omitempty"`
	DependencyIDs   []string     `json:"dependency_ids,omitempty"`
	SuccessCriteria []string     `json:"success_criteria,omitempty"`
	Progress        float64      `json:"progress"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// PlanStrategy is the decomposition rule used to turn a goal into steps.
type PlanStrategy string

const (
	PlanSequential PlanStrategy = "SEQUENTIAL"
	PlanParallel   PlanStrategy = "PARALLEL"
	PlanHybrid     PlanStrategy = "HYBRID"
)

// PlanStatus mirrors the aggregate state of a plan's steps.
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "PENDING"
	PlanStatusRunning   PlanStatus = "RUNNING"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusFailed    PlanStatus = "FAILED"
	PlanStatusCancelled PlanStatus = "CANCELLED"
)

// StepStatus is the lifecycle state of a single plan Step.
type StepStatus string

const (
	StepPending    StepStatus = "PENDING"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepCompleted  StepStatus = "COMPLETED"
	StepFailed     StepStatus = "FAILED"
	StepCancelled  StepStatus = "CANCELLED"
)

// StepResult is whatever the caller-supplied step_executor produced.
type StepResult struct {
	Output   string                 `json:"output,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Step is one node of a plan's step DAG.
type Step struct {
	ID               string      `json:"id"`
	Description      string      `json:"description"`
	RequiredTools    []string    `json:"required_tools,omitempty"`
	DependsOnStepIDs []string    `json:"depends_on_step_ids,omitempty"`
	Status           StepStatus  `json:"status"`
	Attempts         int         `json:"attempts"`
	StartedAt        *time.Time  `json:"started_at,omitempty"`
	FinishedAt       *time.Time  `json:"finished_at,omitempty"`
	Result           *StepResult `json:"result,omitempty"`
}

// Plan is the decomposition of a Goal into an executable step DAG.
type Plan struct {
	ID                    string       `json:"id"`
	GoalID                string       `json:"goal_id"`
	Strategy              PlanStrategy `json:"strategy"`
	Steps                 []*Step      `json:"steps"`
	Status                PlanStatus   `json:"status"`
	TotalEstimatedMinutes float64      `json:"total_estimated_minutes"`
}

// Milestone is a dated checkpoint recorded against a goal.
type Milestone struct {
	ID         string    `json:"id"`
	GoalID     string    `json:"goal_id"`
	Title      string    `json:"title"`
	TargetDate time.Time `json:"target_date"`
	Criteria   []string  `json:"criteria,omitempty"`
}

// Scenario is a pure what-if evaluated by StrategicPlanner.Simulate.
type Scenario struct {
	ID                          string                 `json:"id"`
	Title                       string                 `json:"title"`
	Assumptions                 map[string]interface{} `json:"assumptions"`
	SimulatedSuccessProbability float64                `json:"simulated_success_probability"`
	Reasoning                   string                 `json:"reasoning"`
}

// HypothesisOutcome is the result of running a Hypothesis's test procedure.
type HypothesisOutcome string

const (
	HypothesisUntested     HypothesisOutcome = "UNTESTED"
	HypothesisConfirmed    HypothesisOutcome = "CONFIRMED"
	HypothesisRefuted      HypothesisOutcome = "REFUTED"
	HypothesisInconclusive HypothesisOutcome = "INCONCLUSIVE"
)

// Hypothesis is a testable claim with a Bayesian-updated posterior.
type Hypothesis struct {
	ID                  string            `json:"id"`
	Statement           string            `json:"statement"`
	Rationale           string            `json:"rationale"`
	Procedure           []string          `json:"procedure,omitempty"`
	Criteria            []string          `json:"criteria,omitempty"`
	PriorConfidence     float64           `json:"prior_confidence"`
	PosteriorConfidence float64           `json:"posterior_confidence"`
	Outcome             HypothesisOutcome `json:"outcome"`
	Evidence            []string          `json:"evidence,omitempty"`
}

// ParticipantRole determines a participant's default voting weight.
type ParticipantRole string

const (
	RolePrimaryUser     ParticipantRole = "PRIMARY_USER"
	RoleAdministrator   ParticipantRole = "ADMINISTRATOR"
	RoleAutonomousAgent ParticipantRole = "AUTONOMOUS_AGENT"
	RoleObserver        ParticipantRole = "OBSERVER"
)

// DefaultRoleWeight returns the spec's default per-role voting weight.
func DefaultRoleWeight(role ParticipantRole) float64 {
	switch role {
	case RolePrimaryUser:
		return 0.60
	case RoleAdministrator:
		return 0.30
	case RoleAutonomousAgent:
		return 0.10
	case RoleObserver:
		return 0.00
	default:
		return 0.00
	}
}

// Participant is a registered voter in the consensus engine.
type Participant struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Role     ParticipantRole `json:"role"`
	Verified bool            `json:"verified"`
	Weight   float64         `json:"weight"`
}

// ConsensusType selects the tally rule a Decision is resolved under.
type ConsensusType string

const (
	ConsensusWeighted       ConsensusType = "WEIGHTED"
	ConsensusSimpleMajority ConsensusType = "SIMPLE_MAJORITY"
	ConsensusSupermajority  ConsensusType = "SUPERMAJORITY"
	ConsensusUnanimous      ConsensusType = "UNANIMOUS"
	ConsensusAdaptive       ConsensusType = "ADAPTIVE"
)

// DecisionStatus is the lifecycle state of a Decision.
type DecisionStatus string

const (
	DecisionOpen     DecisionStatus = "OPEN"
	DecisionApproved DecisionStatus = "APPROVED"
	DecisionRejected DecisionStatus = "REJECTED"
	DecisionExpired  DecisionStatus = "EXPIRED"
	DecisionDeferred DecisionStatus = "DEFERRED"
)

// VoteChoice is what a participant casts for a decision.
type VoteChoice string

const (
	VoteApprove VoteChoice = "APPROVE"
	VoteReject  VoteChoice = "REJECT"
	VoteAbstain VoteChoice = "ABSTAIN"
)

// Vote is one participant's cast for a decision. At most one vote per
// participant is counted; a later cast overwrites the earlier one.
type Vote struct {
	ParticipantID string     `json:"participant_id"`
	Choice        VoteChoice `json:"choice"`
	Rationale     string     `json:"rationale,omitempty"`
	CastAt        time.Time  `json:"cast_at"`
}

// Decision is a gated choice requiring multi-party approval.
type Decision struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Type              string            `json:"type"`
	Criticality       float64           `json:"criticality"`
	RecommendedOption string            `json:"recommended_option,omitempty"`
	RequiredRoles     []ParticipantRole `json:"required_roles,omitempty"`
	ConsensusType     ConsensusType     `json:"consensus_type"`
	Deadline          time.Time         `json:"deadline"`
	Votes             []Vote            `json:"votes"`
	Status            DecisionStatus    `json:"status"`
	Rationale         string            `json:"rationale,omitempty"`
}

// Episode is an immutable record of one served query, persisted via
// MemoryStore and consulted read-only during routing.
type Episode struct {
	ID           string                 `json:"id"`
	Timestamp    time.Time              `json:"timestamp"`
	SessionID    string                 `json:"session_id,omitempty"`
	UserID       string                 `json:"user_id,omitempty"`
	QueryText    string                 `json:"query_text"`
	AnswerText   string                 `json:"answer_text"`
	StrategyUsed string                 `json:"strategy_used"`
	Quality      float64                `json:"quality"`
	LatencyMS    int64                  `json:"latency_ms"`
	Status       string                 `json:"status,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
