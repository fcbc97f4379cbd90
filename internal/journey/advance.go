package journey

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
	"venturemap/internal/stagetext"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// interpolate substitutes {data_key} tokens in question templates from the
// accumulated plan data. {competitor_list} resolves to the competitor
// identification field, with a localized fallback.
func (e *Engine) interpolate(text string) string {
	data := e.dataCopy()
	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		key := strings.Trim(token, "{}")
		if key == "competitor_list" {
			competitorKey, _ := catalog.DataKey(catalog.StageCompetitorIdentification)
			if v := data[competitorKey]; v != "" {
				return v
			}
			return stagetext.System("your_competitors", e.locale)
		}
		if v := data[key]; v != "" {
			return v
		}
		return token
	})
}

// advance is the central transition function, invoked after the current
// stage's input has been captured. It strips ephemeral suggestion messages,
// moves to the next catalog entry, and branches on its classification:
// summary stages run the summary cascade, auto-generated stages generate
// their own content and recurse, user-input stages emit their prompt and
// stop. A generation failure halts the cascade at the failed stage without
// touching already-persisted data.
func (e *Engine) advance(ctx context.Context, sess string, current catalog.Stage) error {
	if current == catalog.StageComplete {
		return nil
	}

	e.stripSuggestions()

	next, ok := catalog.Next(current)
	if !ok {
		e.setStage(catalog.StageComplete)
		e.persist(ctx)
		return nil
	}

	e.setStage(next)
	e.log.Debug("stage advanced",
		zap.String("from", string(current)),
		zap.String("to", string(next)))

	switch {
	case next == catalog.StageComplete:
		e.persist(ctx)
		return nil

	case catalog.IsSummary(next):
		e.mu.Lock()
		e.readyForNext = true
		e.mu.Unlock()
		e.persist(ctx)
		if e.summaryPause > 0 {
			t := time.NewTimer(e.summaryPause)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		return e.runSummary(ctx, sess, next)

	case catalog.IsAutoGenerated(next):
		question := e.interpolate(stagetext.Question(next, e.locale))
		e.appendMessage(plan.SenderAI, question, nil, false)

		result, err := e.gen.GenerateForStage(ctx, next, e.dataCopy(), e.locale)
		if !e.sessionAlive(sess) {
			e.log.Warn("discarding stale generation result", zap.String("stage", string(next)))
			return nil
		}
		if err != nil {
			e.log.Error("auto-generation failed", zap.String("stage", string(next)), zap.Error(err))
			e.appendMessage(plan.SenderSystem, stagetext.System("generation_error", e.locale), nil, false)
			e.persist(ctx)
			return nil
		}

		if key, ok := catalog.DataKey(next); ok {
			e.setData(key, result.Text)
		}
		e.appendMessage(plan.SenderAI, result.Text, result.Sources, false)
		return e.advance(ctx, sess, next)

	default:
		e.emitStagePrompt(next)
		e.persist(ctx)
		return nil
	}
}

// runSummary generates the section summary for a summary stage, records it,
// and advances again, chaining through consecutive summary stages without
// user input. On failure the engine halts at the summary stage with
// readyForNext still set so the user can retry via ProceedToNextSection.
func (e *Engine) runSummary(ctx context.Context, sess string, summaryStage catalog.Stage) error {
	key, ok := catalog.DataKey(summaryStage)
	if !ok {
		return nil
	}

	label := summaryLabel(summaryStage)
	e.appendMessage(plan.SenderSystem,
		fmt.Sprintf("%s %s...", stagetext.System("generating_summary", e.locale), label), nil, false)

	text, err := e.gen.GenerateSectionSummary(ctx, summaryStage, e.dataCopy(), e.locale)
	if !e.sessionAlive(sess) {
		e.log.Warn("discarding stale summary result", zap.String("stage", string(summaryStage)))
		return nil
	}
	if err != nil {
		e.log.Error("summary generation failed", zap.String("stage", string(summaryStage)), zap.Error(err))
		e.appendMessage(plan.SenderSystem, stagetext.System("summary_error", e.locale), nil, false)
		e.persist(ctx)
		return nil
	}

	e.setData(key, text)
	e.appendMessage(plan.SenderSystem,
		fmt.Sprintf("%s %s", label, stagetext.System("summary_complete", e.locale)), nil, false)

	e.mu.Lock()
	e.readyForNext = false
	e.mu.Unlock()

	return e.advance(ctx, sess, summaryStage)
}

// summaryLabel names the section a summary stage closes, for system messages.
func summaryLabel(s catalog.Stage) string {
	if p := catalog.PhaseOf(s); p != "" {
		return string(p)
	}
	return strings.SplitN(string(s), "_", 2)[0]
}
