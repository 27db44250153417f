package types

import (
	"fmt"
	"time"
)

// GoalBuilder provides a fluent API for goal construction.
type GoalBuilder struct {
	goal *Goal
}

// NewGoal creates a new GoalBuilder with sensible defaults.
func NewGoal() *GoalBuilder {
	now := time.Now()
	return &GoalBuilder{
		goal: &Goal{
			Priority:  PriorityMedium,
			Status:    GoalPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Title sets the goal title.
func (b *GoalBuilder) Title(title string) *GoalBuilder {
	b.goal.Title = title
	return b
}

// Description sets the goal description.
func (b *GoalBuilder) Description(description string) *GoalBuilder {
	b.goal.Description = description
	return b
}

// Priority overrides the default MEDIUM priority.
func (b *GoalBuilder) Priority(priority GoalPriority) *GoalBuilder {
	b.goal.Priority = priority
	return b
}

// WithParent sets the parent goal ID.
func (b *GoalBuilder) WithParent(parentID string) *GoalBuilder {
	b.goal.ParentID = parentID
	return b
}

// DependsOn appends goal IDs this goal depends on.
func (b *GoalBuilder) DependsOn(goalIDs ...string) *GoalBuilder {
	b.goal.DependencyIDs = append(b.goal.DependencyIDs, goalIDs...)
	return b
}

// SuccessCriteria sets the success criteria list.
func (b *GoalBuilder) SuccessCriteria(criteria []string) *GoalBuilder {
	b.goal.SuccessCriteria = criteria
	return b
}

// Build returns the constructed goal.
func (b *GoalBuilder) Build() *Goal {
	return b.goal
}

// Validate ensures the goal meets minimum requirements.
func (b *GoalBuilder) Validate() error {
	if b.goal.Title == "" {
		return fmt.Errorf("goal title cannot be empty")
	}
	if b.goal.Progress < 0 || b.goal.Progress > 1 {
		return fmt.Errorf("progress must be between 0 and 1")
	}
	return nil
}

// EpisodeBuilder provides a fluent API for episode construction.
type EpisodeBuilder struct {
	episode *Episode
}

// NewEpisode creates a new EpisodeBuilder with sensible defaults.
func NewEpisode() *EpisodeBuilder {
	return &EpisodeBuilder{
		episode: &Episode{
			Timestamp: time.Now(),
			Metadata:  map[string]interface{}{},
		},
	}
}

// Query sets the query text.
func (b *EpisodeBuilder) Query(text string) *EpisodeBuilder {
	b.episode.QueryText = text
	return b
}

// Answer sets the answer text.
func (b *EpisodeBuilder) Answer(text string) *EpisodeBuilder {
	b.episode.AnswerText = text
	return b
}

// Strategy sets the strategy that produced the answer.
func (b *EpisodeBuilder) Strategy(strategy string) *EpisodeBuilder {
	b.episode.StrategyUsed = strategy
	return b
}

// Quality sets the evaluator's quality score.
func (b *EpisodeBuilder) Quality(quality float64) *EpisodeBuilder {
	b.episode.Quality = quality
	return b
}

// Session sets the session and user identifiers.
func (b *EpisodeBuilder) Session(sessionID, userID string) *EpisodeBuilder {
	b.episode.SessionID = sessionID
	b.episode.UserID = userID
	return b
}

// Latency sets the total latency in milliseconds.
func (b *EpisodeBuilder) Latency(ms int64) *EpisodeBuilder {
	b.episode.LatencyMS = ms
	return b
}

// Status overrides the default empty status (e.g. "failed", "cancelled").
func (b *EpisodeBuilder) Status(status string) *EpisodeBuilder {
	b.episode.Status = status
	return b
}

// WithMetadata sets a metadata key-value pair.
func (b *EpisodeBuilder) WithMetadata(key string, value interface{}) *EpisodeBuilder {
	if b.episode.Metadata == nil {
		b.episode.Metadata = make(map[string]interface{})
	}
	b.episode.Metadata[key] = value
	return b
}

// Build returns the constructed episode.
func (b *EpisodeBuilder) Build() *Episode {
	return b.episode
}

// Validate ensures the episode meets minimum requirements.
func (b *EpisodeBuilder) Validate() error {
	if b.episode.QueryText == "" {
		return fmt.Errorf("episode query_text cannot be empty")
	}
	if b.episode.Quality < 0 || b.episode.Quality > 1 {
		return fmt.Errorf("quality must be between 0 and 1")
	}
	return nil
}
