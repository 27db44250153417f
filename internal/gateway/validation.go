package gateway

import (
	"fmt"

	"unified-thinking/internal/errs"
)

// Input validation limits to protect against resource exhaustion and
// malformed requests, grounded on the teacher's own internal/server/
// validation.go constants (MaxContentLength, MaxKeyPoints, ...) and
// retargeted to the gateway's request shapes.
const (
	// MaxQueryLength limits query text to 10KB.
	MaxQueryLength = 10000

	// MaxTitleLength limits goal/decision titles to 500 bytes.
	MaxTitleLength = 500

	// MaxDescriptionLength limits goal/decision descriptions to 10KB.
	MaxDescriptionLength = 10000

	// MaxSuccessCriteria limits a goal's success criteria list to 50 items.
	MaxSuccessCriteria = 50

	// MaxPlanSteps limits a single plan to 200 steps.
	MaxPlanSteps = 200

	// MaxAttachments limits a query's attachment count to 20.
	MaxAttachments = 20

	// MaxRationaleLength limits a vote's rationale text to 2KB.
	MaxRationaleLength = 2000
)

func tooLong(op, field string, got, max int) error {
	return errs.New(op, errs.InvalidInput, fmt.Sprintf("%s exceeds maximum length (%d > %d)", field, got, max))
}

func validateQuery(op string, req queryRequest) error {
	if len(req.Query) == 0 {
		return errs.New(op, errs.InvalidInput, "query must not be empty")
	}
	if len(req.Query) > MaxQueryLength {
		return tooLong(op, "query", len(req.Query), MaxQueryLength)
	}
	if len(req.Attachments) > MaxAttachments {
		return tooLong(op, "attachments", len(req.Attachments), MaxAttachments)
	}
	return nil
}

func validateCreateGoal(op string, req createGoalRequest) error {
	if len(req.Title) > MaxTitleLength {
		return tooLong(op, "title", len(req.Title), MaxTitleLength)
	}
	if len(req.Description) > MaxDescriptionLength {
		return tooLong(op, "description", len(req.Description), MaxDescriptionLength)
	}
	if len(req.SuccessCriteria) > MaxSuccessCriteria {
		return tooLong(op, "success_criteria", len(req.SuccessCriteria), MaxSuccessCriteria)
	}
	return nil
}

func validateCreatePlan(op string, req createPlanRequest) error {
	if len(req.Steps) == 0 {
		return errs.New(op, errs.InvalidInput, "plan must have at least one step")
	}
	if len(req.Steps) > MaxPlanSteps {
		return tooLong(op, "steps", len(req.Steps), MaxPlanSteps)
	}
	return nil
}

func validateOpenDecision(op string, req openDecisionRequest) error {
	if len(req.Title) > MaxTitleLength {
		return tooLong(op, "title", len(req.Title), MaxTitleLength)
	}
	if len(req.Description) > MaxDescriptionLength {
		return tooLong(op, "description", len(req.Description), MaxDescriptionLength)
	}
	if req.DeadlineMS <= 0 {
		return errs.New(op, errs.InvalidInput, "deadline_ms must be positive")
	}
	return nil
}

func validateCastVote(op string, req castVoteRequest) error {
	if len(req.Rationale) > MaxRationaleLength {
		return tooLong(op, "rationale", len(req.Rationale), MaxRationaleLength)
	}
	return nil
}
