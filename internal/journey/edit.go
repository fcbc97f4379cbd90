package journey

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
	"venturemap/internal/stagetext"
)

// EditStage marks a stage at or before the current position for direct
// editing. Editing ahead of the current stage is rejected.
func (e *Engine) EditStage(stage catalog.Stage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !catalog.Known(stage) || catalog.Ordinal(stage) > catalog.Ordinal(e.stage) {
		return ErrInvalidTransition
	}
	e.editing = stage
	return nil
}

// CancelEdit leaves edit mode without saving.
func (e *Engine) CancelEdit() {
	e.mu.Lock()
	e.editing = ""
	e.mu.Unlock()
}

// UpdateStageData overwrites the edited stage's saved field and persists.
// The journey position never rewinds: persistence uses the current stage,
// not the edited one. Valid only while stage is the one being edited.
func (e *Engine) UpdateStageData(ctx context.Context, stage catalog.Stage, newValue string) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	key, ok := catalog.DataKey(stage)
	if !ok {
		return ErrNoDataKey
	}

	// Edit mode ends only on a successful write; a failed update leaves the
	// stage editable.
	e.mu.Lock()
	if e.editing != stage {
		e.mu.Unlock()
		return ErrInvalidTransition
	}
	e.editing = ""
	e.mu.Unlock()

	e.appendMessage(plan.SenderSystem,
		fmt.Sprintf("%s %s...", stagetext.System("saving_changes", e.locale), stage), nil, false)
	e.setData(key, newValue)
	e.appendMessage(plan.SenderSystem, stagetext.System("changes_saved", e.locale), nil, false)
	e.persist(ctx)
	return nil
}

// RefineEditedStage rewrites an already-saved field in place according to a
// free-text instruction and persists the result immediately. There is no
// accept/reject step; failures leave the field untouched.
func (e *Engine) RefineEditedStage(ctx context.Context, stage catalog.Stage, instruction string) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	key, ok := catalog.DataKey(stage)
	if !ok {
		return ErrNoDataKey
	}

	e.appendMessage(plan.SenderSystem,
		fmt.Sprintf("%s %s...", stagetext.System("refining_stage", e.locale), stage), nil, false)

	original := e.dataCopy()[key]
	refined, err := e.gen.RefineText(ctx, original, instruction, e.dataCopy(), e.locale)
	if !e.sessionAlive(sess) {
		return nil
	}
	if err != nil {
		e.log.Error("stage refinement failed", zap.String("stage", string(stage)), zap.Error(err))
		e.appendMessage(plan.SenderSystem, stagetext.System("refine_error", e.locale), nil, false)
		e.persist(ctx)
		return nil
	}

	e.setData(key, refined)
	e.appendMessage(plan.SenderSystem, stagetext.System("stage_refined", e.locale), nil, false)
	e.persist(ctx)
	return nil
}

// JumpToStage moves the displayed stage strictly backward for review and
// re-emits that stage's guidance and question for context. Plan data is not
// touched and edit mode is not opened; jumping forward is rejected.
func (e *Engine) JumpToStage(ctx context.Context, stage catalog.Stage) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	e.mu.Lock()
	if !catalog.Known(stage) || catalog.Ordinal(stage) >= catalog.Ordinal(e.stage) {
		e.mu.Unlock()
		return ErrInvalidTransition
	}
	e.stage = stage
	e.mu.Unlock()

	e.emitStagePrompt(stage)
	e.persist(ctx)
	return nil
}

// Restart discards the journey except for the project name and initial idea,
// resets to the first content stage, and persists. Destructive and
// irreversible from the engine's point of view; any confirmation belongs in
// the calling layer.
func (e *Engine) Restart(ctx context.Context) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	e.mu.Lock()
	kept := make(plan.Data)
	if v := e.data[plan.KeyProjectName]; v != "" {
		kept[plan.KeyProjectName] = v
	}
	idea := e.data[plan.KeyInitialIdea]
	if idea != "" {
		kept[plan.KeyInitialIdea] = idea
	}
	e.data = kept
	e.messages = nil
	e.stage = catalog.FirstContent()
	e.editing = ""
	e.readyForNext = false
	e.suggestionOpen = false
	e.suggestion = ""
	first := e.stage
	e.mu.Unlock()

	e.appendMessage(plan.SenderSystem,
		fmt.Sprintf("%s %s", stagetext.System("restart_project", e.locale), idea), nil, false)
	e.emitStagePrompt(first)
	e.persist(ctx)

	e.log.Info("journey restarted", zap.String("project", e.ProjectID()))
	return nil
}

// FirstUncompletedStage scans the catalog from the start through the current
// stage and returns the first stage whose data field is still absent. A
// read-only diagnostic: it never moves the journey cursor. Returns false at
// the terminal marker or when no gap exists.
func (e *Engine) FirstUncompletedStage() (catalog.Stage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stage == catalog.StageComplete {
		return "", false
	}
	for _, s := range catalog.All[:catalog.Ordinal(e.stage)+1] {
		key, ok := catalog.DataKey(s)
		if !ok {
			continue
		}
		if e.data[key] == "" {
			return s, true
		}
	}
	return "", false
}
