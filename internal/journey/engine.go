package journey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
	"venturemap/internal/stagetext"
)

const (
	// DefaultSummaryPause is the pacing delay before a summary cascade runs.
	// Tests and synchronous callers set Config.SummaryPause to -1 to disable.
	DefaultSummaryPause = 1500 * time.Millisecond

	persistAttempts = 3
	persistBackoff  = 50 * time.Millisecond
)

// Config assembles an Engine.
type Config struct {
	Store        ProjectStore
	Generator    Generator
	Locale       plan.Locale
	Logger       *zap.Logger
	SummaryPause time.Duration // 0 means DefaultSummaryPause; negative disables
}

// Engine is the journey state machine for one open project. All mutating
// intents are serialized: the engine tracks a busy flag and rejects new
// mutating intents while an operation (including any chained generation
// cascade) is still in flight.
type Engine struct {
	mu   sync.Mutex
	busy bool

	store ProjectStore
	gen   Generator
	log   *zap.Logger

	locale       plan.Locale
	summaryPause time.Duration

	projectID string
	sessionID string

	stage          catalog.Stage
	data           plan.Data
	messages       []plan.Message
	editing        catalog.Stage
	readyForNext   bool
	suggestionOpen bool
	suggestion     string
}

// New creates an engine. Open must be called before any intent.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	locale := cfg.Locale
	if locale == "" {
		locale = plan.LocaleEN
	}
	pause := cfg.SummaryPause
	if pause == 0 {
		pause = DefaultSummaryPause
	}
	if pause < 0 {
		pause = 0
	}
	return &Engine{
		store:        cfg.Store,
		gen:          cfg.Generator,
		log:          log,
		locale:       locale,
		summaryPause: pause,
		stage:        catalog.StageInitial,
		data:         make(plan.Data),
	}
}

// Open loads a project into the engine, replacing any previously open one.
// Any generation still in flight for the previous project is orphaned: its
// result is discarded when it arrives because the session tag no longer
// matches. If the loaded transcript is empty, the opening system message and
// the current stage's guidance/question are seeded.
func (e *Engine) Open(ctx context.Context, projectID string) error {
	e.mu.Lock()
	e.projectID = projectID
	e.sessionID = uuid.NewString()
	e.stage = catalog.StageInitial
	e.data = make(plan.Data)
	e.messages = nil
	e.editing = ""
	e.readyForNext = false
	e.suggestionOpen = false
	e.suggestion = ""
	e.busy = false
	e.mu.Unlock()

	stage, data, messages, err := e.store.Load(ctx, projectID)
	if err != nil {
		e.log.Error("failed to load project", zap.String("project", projectID), zap.Error(err))
		return fmt.Errorf("load project %s: %w", projectID, err)
	}

	e.mu.Lock()
	e.stage = stage
	e.data = data.Clone()
	e.messages = plan.CloneMessages(messages)
	seed := len(e.messages) == 0
	e.mu.Unlock()

	if seed {
		name := data[plan.KeyProjectName]
		e.appendMessage(plan.SenderSystem, fmt.Sprintf("%s %q", stagetext.System("start_journey", e.locale), name), nil, false)
		e.emitStagePrompt(stage)
		e.persist(ctx)
	}

	e.log.Info("project opened",
		zap.String("project", projectID),
		zap.String("stage", string(stage)),
		zap.Int("messages", len(messages)))
	return nil
}

// begin admits one mutating intent; concurrent intents get ErrBusy. The
// returned session tag must be handed back to end: an intent orphaned by a
// project switch must not release the flag the reopened project's intents
// depend on.
func (e *Engine) begin() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return "", ErrBusy
	}
	e.busy = true
	return e.sessionID, nil
}

func (e *Engine) end(sess string) {
	e.mu.Lock()
	if e.sessionID == sess {
		e.busy = false
	}
	e.mu.Unlock()
}

// session returns the tag of the currently open project. Results of external
// calls are applied only while the tag still matches (guards against a
// project switch racing an in-flight generation).
func (e *Engine) session() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *Engine) sessionAlive(tag string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID == tag
}

func (e *Engine) appendMessage(sender plan.Sender, text string, sources []plan.Source, isSuggestion bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, plan.Message{
		ID:           uuid.NewString(),
		Text:         text,
		Sender:       sender,
		Sources:      sources,
		IsSuggestion: isSuggestion,
	})
}

// emitStagePrompt appends a stage's guidance (when present) and question as
// AI messages.
func (e *Engine) emitStagePrompt(stage catalog.Stage) {
	if guidance, ok := stagetext.Guidance(stage, e.locale); ok {
		e.appendMessage(plan.SenderAI, guidance, nil, false)
	}
	e.appendMessage(plan.SenderAI, e.interpolate(stagetext.Question(stage, e.locale)), nil, false)
}

func (e *Engine) setStage(s catalog.Stage) {
	e.mu.Lock()
	e.stage = s
	e.mu.Unlock()
}

func (e *Engine) currentStage() catalog.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

func (e *Engine) setData(key, value string) {
	e.mu.Lock()
	e.data[key] = value
	e.mu.Unlock()
}

func (e *Engine) dataCopy() plan.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Clone()
}

// lastUserMessage returns the text of the most recent user-sent message.
func (e *Engine) lastUserMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.messages) - 1; i >= 0; i-- {
		if e.messages[i].Sender == plan.SenderUser {
			return e.messages[i].Text
		}
	}
	return ""
}

// stripSuggestions removes ephemeral suggestion messages from the transcript.
// Suggestions never survive a finalized stage.
func (e *Engine) stripSuggestions() {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.messages[:0]
	for _, m := range e.messages {
		if !m.IsSuggestion {
			kept = append(kept, m)
		}
	}
	e.messages = kept
}

// persist saves the full journey state with bounded retry. Failures are
// logged, never surfaced: the in-memory state is kept optimistically.
func (e *Engine) persist(ctx context.Context) {
	e.mu.Lock()
	projectID := e.projectID
	stage := e.stage
	data := e.data.Clone()
	messages := plan.CloneMessages(e.messages)
	e.mu.Unlock()

	if projectID == "" {
		return
	}

	var err error
	for attempt := 0; attempt < persistAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				e.log.Warn("persist abandoned", zap.String("project", projectID), zap.Error(ctx.Err()))
				return
			case <-time.After(persistBackoff << (attempt - 1)):
			}
		}
		if err = e.store.Save(ctx, projectID, stage, data, messages); err == nil {
			return
		}
		e.log.Warn("save failed",
			zap.String("project", projectID),
			zap.String("stage", string(stage)),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	e.log.Error("project state not persisted after retries",
		zap.String("project", projectID), zap.Error(err))
}

// Snapshot returns a consistent copy of the engine state for rendering.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Stage:               e.stage,
		Data:                e.data.Clone(),
		Messages:            plan.CloneMessages(e.messages),
		EditingStage:        e.editing,
		ReadyForNextSection: e.readyForNext,
		SuggestionOpen:      e.suggestionOpen,
		Suggestion:          e.suggestion,
	}
}

// Busy reports whether a mutating intent is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// IsComplete reports whether the journey reached the terminal marker.
func (e *Engine) IsComplete() bool {
	return e.currentStage() == catalog.StageComplete
}

// Progress returns journey completion in [0, 1].
func (e *Engine) Progress() float64 {
	return catalog.Progress(e.currentStage())
}

// ProjectID returns the id of the open project, or "".
func (e *Engine) ProjectID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projectID
}

// Locale returns the active locale.
func (e *Engine) Locale() plan.Locale {
	return e.locale
}
