// Package journey implements the wizard state machine that walks a project
// through the ordered business-plan stages: stage advancement with
// auto-generated and summary cascades, the suggestion lifecycle,
// edit-and-resume, backward navigation, and restart.
//
// The engine owns the current stage, the accumulated plan data, and the chat
// transcript for one open project. External collaborators - the project store
// and the generation service - are consumed through the interfaces below and
// never mutate engine state directly; the UI reads state through Snapshot
// copies only.
package journey

import (
	"context"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
)

// Generated is the result of a stage-content generation call.
type Generated struct {
	Text    string
	Sources []plan.Source
}

// Generator is the text-generation service the engine drives. Calls may fail;
// the engine recovers locally and never writes partial results.
type Generator interface {
	// GenerateForStage produces the content of an auto-generated stage.
	GenerateForStage(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error)
	// GenerateSectionSummary produces the text for a section summary stage.
	GenerateSectionSummary(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (string, error)
	// GenerateSuggestion drafts an answer for the current stage. userHint is
	// the most recent user message, if any.
	GenerateSuggestion(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) (string, error)
	// RefineText rewrites original according to a free-text instruction.
	RefineText(ctx context.Context, original, instruction string, data plan.Data, locale plan.Locale) (string, error)
}

// ProjectStore persists journey state keyed by project id with upsert
// semantics: Save overwrites stage, data, and transcript together.
type ProjectStore interface {
	Load(ctx context.Context, projectID string) (catalog.Stage, plan.Data, []plan.Message, error)
	Save(ctx context.Context, projectID string, stage catalog.Stage, data plan.Data, messages []plan.Message) error
}

// Snapshot is a point-in-time copy of engine state for rendering. The maps
// and slices are copies; mutating them does not affect the engine.
type Snapshot struct {
	Stage               catalog.Stage
	Data                plan.Data
	Messages            []plan.Message
	EditingStage        catalog.Stage // "" when not editing
	ReadyForNextSection bool
	SuggestionOpen      bool
	Suggestion          string
}
