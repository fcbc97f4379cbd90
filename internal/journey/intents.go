package journey

import (
	"context"

	"go.uber.org/zap"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
	"venturemap/internal/stagetext"
)

// SendMessage captures user input for the current stage: the text is appended
// to the transcript, written into the stage's data field if it has one, and
// the engine advances. Returns ErrBusy while another intent is in flight.
func (e *Engine) SendMessage(ctx context.Context, text string) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)
	return e.captureInput(ctx, sess, text)
}

func (e *Engine) captureInput(ctx context.Context, sess string, text string) error {
	current := e.currentStage()

	e.appendMessage(plan.SenderUser, text, nil, false)
	if key, ok := catalog.DataKey(current); ok {
		e.setData(key, text)
	}
	if current == catalog.StageComplete {
		// The journey stays terminal but the message still lands in the
		// saved transcript.
		e.persist(ctx)
		return nil
	}
	return e.advance(ctx, sess, current)
}

// RequestSuggestion opens the suggestion flow in a loading state and asks the
// generation service for a draft answer to the current stage. On failure the
// flow is closed and a system failure message is appended. A second request
// while a suggestion is open is rejected.
func (e *Engine) RequestSuggestion(ctx context.Context) error {
	e.mu.Lock()
	if e.suggestionOpen {
		e.mu.Unlock()
		return ErrSuggestionOpen
	}
	if e.busy {
		e.mu.Unlock()
		return ErrBusy
	}
	e.busy = true
	e.suggestionOpen = true
	e.suggestion = ""
	sess := e.sessionID
	e.mu.Unlock()
	defer e.end(sess)

	text, err := e.gen.GenerateSuggestion(ctx, e.currentStage(), e.dataCopy(), e.locale, e.lastUserMessage())
	if !e.sessionAlive(sess) {
		return nil
	}
	if err != nil {
		e.log.Error("suggestion generation failed", zap.Error(err))
		e.clearSuggestion()
		e.appendMessage(plan.SenderSystem, stagetext.System("suggestion_error", e.locale), nil, false)
		e.persist(ctx)
		return nil
	}

	e.mu.Lock()
	e.suggestion = text
	e.mu.Unlock()
	return nil
}

// RefineSuggestion replaces the open suggestion with a version rewritten
// according to a free-text instruction. Plan data and the transcript stay
// untouched until the suggestion is accepted.
func (e *Engine) RefineSuggestion(ctx context.Context, original, instruction string) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	refined, err := e.gen.RefineText(ctx, original, instruction, e.dataCopy(), e.locale)
	if !e.sessionAlive(sess) {
		return nil
	}
	if err != nil {
		e.log.Error("suggestion refinement failed", zap.Error(err))
		e.appendMessage(plan.SenderSystem, stagetext.System("refine_error", e.locale), nil, false)
		e.persist(ctx)
		return nil
	}

	e.mu.Lock()
	e.suggestion = refined
	e.mu.Unlock()
	return nil
}

// AcceptSuggestion closes the suggestion flow and treats finalText exactly as
// if the user had typed and sent it.
func (e *Engine) AcceptSuggestion(ctx context.Context, finalText string) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	e.clearSuggestion()
	return e.captureInput(ctx, sess, finalText)
}

// CloseSuggestion discards the open suggestion without applying it.
func (e *Engine) CloseSuggestion() {
	e.clearSuggestion()
}

// clearSuggestion resets both suggestion fields together; they are never
// cleared separately.
func (e *Engine) clearSuggestion() {
	e.mu.Lock()
	e.suggestionOpen = false
	e.suggestion = ""
	e.mu.Unlock()
}

// ProceedToNextSection explicitly triggers summary generation for the current
// summary stage and advances. It is the manual counterpart of the automatic
// summary cascade, used when the cascade halted (for example after a
// generation failure).
func (e *Engine) ProceedToNextSection(ctx context.Context) error {
	sess, err := e.begin()
	if err != nil {
		return err
	}
	defer e.end(sess)

	current := e.currentStage()
	if !catalog.IsSummary(current) || current == catalog.StageComplete {
		return ErrInvalidTransition
	}

	e.mu.Lock()
	e.readyForNext = false
	e.mu.Unlock()

	return e.runSummary(ctx, sess, current)
}

// SetReadyForNextSection lets the calling layer flag that the active phase's
// stages are all filled and the summary step may be triggered.
func (e *Engine) SetReadyForNextSection(ready bool) {
	e.mu.Lock()
	e.readyForNext = ready
	e.mu.Unlock()
}
