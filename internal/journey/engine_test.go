package journey

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
	"venturemap/internal/stagetext"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// openAt returns an engine opened on a project already positioned at stage,
// with a non-empty transcript so Open does not re-seed.
func openAt(t *testing.T, stage catalog.Stage, data plan.Data) (*Engine, *MockStore, *MockGenerator) {
	t.Helper()
	if data == nil {
		data = plan.Data{}
	}
	store := &MockStore{
		LoadFunc: func(ctx context.Context, projectID string) (catalog.Stage, plan.Data, []plan.Message, error) {
			return stage, data.Clone(), []plan.Message{{ID: "m0", Text: "welcome back", Sender: plan.SenderAI}}, nil
		},
	}
	gen := &MockGenerator{}
	eng := New(Config{Store: store, Generator: gen, SummaryPause: -1})
	require.NoError(t, eng.Open(context.Background(), "proj-1"))
	return eng, store, gen
}

func lastMessage(t *testing.T, eng *Engine) plan.Message {
	t.Helper()
	msgs := eng.Snapshot().Messages
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestOpenSeedsEmptyTranscript(t *testing.T) {
	store := &MockStore{
		LoadFunc: func(ctx context.Context, projectID string) (catalog.Stage, plan.Data, []plan.Message, error) {
			return catalog.StageIdeaTitle, plan.Data{plan.KeyProjectName: "PawCare"}, nil, nil
		},
	}
	eng := New(Config{Store: store, Generator: &MockGenerator{}, SummaryPause: -1})
	require.NoError(t, eng.Open(context.Background(), "proj-1"))

	snap := eng.Snapshot()
	require.NotEmpty(t, snap.Messages)
	assert.Equal(t, plan.SenderSystem, snap.Messages[0].Sender)
	assert.Contains(t, snap.Messages[0].Text, "PawCare")
	last := snap.Messages[len(snap.Messages)-1]
	assert.Equal(t, plan.SenderAI, last.Sender)
	assert.Equal(t, stagetext.Question(catalog.StageIdeaTitle, plan.LocaleEN), last.Text)
	assert.GreaterOrEqual(t, store.Saves(), 1)
}

func TestOpenKeepsExistingTranscript(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageIdeaTitle, nil)
	assert.Len(t, eng.Snapshot().Messages, 1)
	assert.Zero(t, store.Saves())
}

func TestSendMessageRecordsAnswerAndAdvances(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageIdeaTitle, nil)

	require.NoError(t, eng.SendMessage(context.Background(), "PawCare"))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageElevatorPitch, snap.Stage)
	assert.Equal(t, "PawCare", snap.Data["idea_title"])
	assert.Equal(t, stagetext.Question(catalog.StageElevatorPitch, plan.LocaleEN), lastMessage(t, eng).Text)

	savedStage, savedData, _ := store.Last()
	assert.Equal(t, catalog.StageElevatorPitch, savedStage)
	assert.Equal(t, "PawCare", savedData["idea_title"])
}

func TestSummaryCascadeRunsWithoutUserInput(t *testing.T) {
	eng, store, gen := openAt(t, catalog.StageElevatorPitch, plan.Data{"idea_title": "PawCare"})

	require.NoError(t, eng.SendMessage(context.Background(), "Vet care on demand"))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageProblemDescription, snap.Stage)
	assert.Equal(t, "summary of EXECUTIVE_SUMMARY", snap.Data["executive_summary"])
	assert.False(t, snap.ReadyForNextSection)
	assert.Equal(t, []catalog.Stage{catalog.StageExecutiveSummary}, gen.SummaryCalls)

	savedStage, _, _ := store.Last()
	assert.Equal(t, catalog.StageProblemDescription, savedStage)
}

func TestAutoGeneratedStageChains(t *testing.T) {
	eng, _, gen := openAt(t, catalog.StageBMCCustomerSegments, nil)

	require.NoError(t, eng.SendMessage(context.Background(), "Pet owners in cities"))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageBMCChannels, snap.Stage)
	assert.Equal(t, "generated for BMC_VALUE_PROPOSITIONS", snap.Data["bmc_value_propositions"])
	assert.Equal(t, []catalog.Stage{catalog.StageBMCValuePropositions}, gen.StageCalls)
}

func TestGenerationFailureHaltsAtFailedStage(t *testing.T) {
	eng, store, gen := openAt(t, catalog.StageBMCCustomerSegments, nil)
	gen.GenerateForStageFunc = func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error) {
		return Generated{}, errors.New("model unavailable")
	}

	require.NoError(t, eng.SendMessage(context.Background(), "Pet owners in cities"))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageBMCValuePropositions, snap.Stage)
	assert.NotContains(t, snap.Data, "bmc_value_propositions")
	last := lastMessage(t, eng)
	assert.Equal(t, plan.SenderSystem, last.Sender)
	assert.Equal(t, stagetext.System("generation_error", plan.LocaleEN), last.Text)

	savedStage, _, _ := store.Last()
	assert.Equal(t, catalog.StageBMCValuePropositions, savedStage)
}

func TestSummaryFailureLeavesRetryAvailable(t *testing.T) {
	eng, _, gen := openAt(t, catalog.StageElevatorPitch, nil)
	gen.GenerateSectionSummaryFunc = func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (string, error) {
		return "", errors.New("model unavailable")
	}

	require.NoError(t, eng.SendMessage(context.Background(), "Vet care on demand"))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageExecutiveSummary, snap.Stage)
	assert.True(t, snap.ReadyForNextSection)
	assert.NotContains(t, snap.Data, "executive_summary")

	gen.GenerateSectionSummaryFunc = nil
	require.NoError(t, eng.ProceedToNextSection(context.Background()))

	snap = eng.Snapshot()
	assert.Equal(t, catalog.StageProblemDescription, snap.Stage)
	assert.False(t, snap.ReadyForNextSection)
	assert.Equal(t, "summary of EXECUTIVE_SUMMARY", snap.Data["executive_summary"])
}

func TestProceedToNextSectionRejectedOffSummaryStage(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageIdeaTitle, nil)
	assert.ErrorIs(t, eng.ProceedToNextSection(context.Background()), ErrInvalidTransition)

	eng, _, _ = openAt(t, catalog.StageComplete, nil)
	assert.ErrorIs(t, eng.ProceedToNextSection(context.Background()), ErrInvalidTransition)
}

func TestSuggestionLifecycle(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageElevatorPitch, nil)

	require.NoError(t, eng.RequestSuggestion(context.Background()))
	snap := eng.Snapshot()
	assert.True(t, snap.SuggestionOpen)
	assert.Equal(t, "suggested answer", snap.Suggestion)

	assert.ErrorIs(t, eng.RequestSuggestion(context.Background()), ErrSuggestionOpen)

	require.NoError(t, eng.RefineSuggestion(context.Background(), snap.Suggestion, "shorter"))
	assert.Equal(t, "suggested answer (refined: shorter)", eng.Snapshot().Suggestion)

	require.NoError(t, eng.AcceptSuggestion(context.Background(), "Final pitch"))
	snap = eng.Snapshot()
	assert.False(t, snap.SuggestionOpen)
	assert.Empty(t, snap.Suggestion)
	assert.Equal(t, "Final pitch", snap.Data["elevator_pitch"])
	assert.NotEqual(t, catalog.StageElevatorPitch, snap.Stage)
}

func TestSuggestionFailureClosesFlow(t *testing.T) {
	eng, store, gen := openAt(t, catalog.StageElevatorPitch, nil)
	gen.GenerateSuggestionFunc = func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) (string, error) {
		return "", errors.New("model unavailable")
	}

	require.NoError(t, eng.RequestSuggestion(context.Background()))

	snap := eng.Snapshot()
	assert.False(t, snap.SuggestionOpen)
	assert.Empty(t, snap.Suggestion)
	assert.Equal(t, stagetext.System("suggestion_error", plan.LocaleEN), lastMessage(t, eng).Text)

	// The failure message is part of the saved transcript.
	assert.Equal(t, 1, store.Saves())
	_, _, savedMsgs := store.Last()
	require.NotEmpty(t, savedMsgs)
	assert.Equal(t, stagetext.System("suggestion_error", plan.LocaleEN), savedMsgs[len(savedMsgs)-1].Text)
}

func TestRefineFailureMessageIsPersisted(t *testing.T) {
	eng, store, gen := openAt(t, catalog.StageElevatorPitch, nil)
	require.NoError(t, eng.RequestSuggestion(context.Background()))
	gen.RefineTextFunc = func(ctx context.Context, original, instruction string, data plan.Data, locale plan.Locale) (string, error) {
		return "", errors.New("model unavailable")
	}

	saved := store.Saves()
	require.NoError(t, eng.RefineSuggestion(context.Background(), "draft", "shorter"))

	assert.Equal(t, stagetext.System("refine_error", plan.LocaleEN), lastMessage(t, eng).Text)
	assert.Equal(t, saved+1, store.Saves())
}

func TestCloseSuggestionDiscards(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageElevatorPitch, nil)

	require.NoError(t, eng.RequestSuggestion(context.Background()))
	eng.CloseSuggestion()

	snap := eng.Snapshot()
	assert.False(t, snap.SuggestionOpen)
	assert.Empty(t, snap.Suggestion)
	assert.Equal(t, catalog.StageElevatorPitch, snap.Stage)
	assert.NotContains(t, snap.Data, "elevator_pitch")
}

func TestEditStageOnlyBackward(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageProblemDescription, plan.Data{"idea_title": "PawCare"})

	assert.ErrorIs(t, eng.EditStage(catalog.StageTagline), ErrInvalidTransition)

	require.NoError(t, eng.EditStage(catalog.StageIdeaTitle))
	assert.Equal(t, catalog.StageIdeaTitle, eng.Snapshot().EditingStage)
}

func TestCancelEdit(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageProblemDescription, nil)
	require.NoError(t, eng.EditStage(catalog.StageIdeaTitle))

	eng.CancelEdit()
	assert.Empty(t, eng.Snapshot().EditingStage)
}

func TestUpdateStageDataKeepsJourneyPosition(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageProblemDescription, plan.Data{"idea_title": "PawCare"})
	require.NoError(t, eng.EditStage(catalog.StageIdeaTitle))

	require.NoError(t, eng.UpdateStageData(context.Background(), catalog.StageIdeaTitle, "PawCare Plus"))

	snap := eng.Snapshot()
	assert.Equal(t, "PawCare Plus", snap.Data["idea_title"])
	assert.Equal(t, catalog.StageProblemDescription, snap.Stage)
	assert.Empty(t, snap.EditingStage)

	savedStage, savedData, _ := store.Last()
	assert.Equal(t, catalog.StageProblemDescription, savedStage)
	assert.Equal(t, "PawCare Plus", savedData["idea_title"])
}

func TestUpdateStageDataRejectedWithoutEdit(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageProblemDescription, nil)
	assert.ErrorIs(t, eng.UpdateStageData(context.Background(), catalog.StageIdeaTitle, "x"), ErrInvalidTransition)
}

func TestUpdateStageDataKeylessStageKeepsEditOpen(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageProblemDescription, nil)
	require.NoError(t, eng.EditStage(catalog.StageInitial))

	assert.ErrorIs(t, eng.UpdateStageData(context.Background(), catalog.StageInitial, "x"), ErrNoDataKey)

	assert.Equal(t, catalog.StageInitial, eng.Snapshot().EditingStage)
	assert.Zero(t, store.Saves())
}

func TestRefineEditedStageOverwritesInPlace(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageProblemDescription, plan.Data{"idea_title": "PawCare"})

	require.NoError(t, eng.RefineEditedStage(context.Background(), catalog.StageIdeaTitle, "make it catchier"))

	assert.Equal(t, "PawCare (refined: make it catchier)", eng.Snapshot().Data["idea_title"])
	_, savedData, _ := store.Last()
	assert.Equal(t, "PawCare (refined: make it catchier)", savedData["idea_title"])
	assert.Equal(t, stagetext.System("stage_refined", plan.LocaleEN), lastMessage(t, eng).Text)
}

func TestJumpToStageBackwardOnly(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageProblemDescription, plan.Data{"idea_title": "PawCare"})

	assert.ErrorIs(t, eng.JumpToStage(context.Background(), catalog.StageTagline), ErrInvalidTransition)
	assert.ErrorIs(t, eng.JumpToStage(context.Background(), catalog.StageProblemDescription), ErrInvalidTransition)

	require.NoError(t, eng.JumpToStage(context.Background(), catalog.StageIdeaTitle))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageIdeaTitle, snap.Stage)
	assert.Equal(t, "PawCare", snap.Data["idea_title"])
	assert.Equal(t, stagetext.Question(catalog.StageIdeaTitle, plan.LocaleEN), lastMessage(t, eng).Text)

	savedStage, _, _ := store.Last()
	assert.Equal(t, catalog.StageIdeaTitle, savedStage)
}

func TestRestartKeepsOnlyNameAndIdea(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageProblemDescription, plan.Data{
		plan.KeyProjectName: "PawCare",
		plan.KeyInitialIdea: "vet care on demand",
		"idea_title":        "PawCare",
		"elevator_pitch":    "Uber for vets",
	})

	require.NoError(t, eng.Restart(context.Background()))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.FirstContent(), snap.Stage)
	assert.Equal(t, plan.Data{
		plan.KeyProjectName: "PawCare",
		plan.KeyInitialIdea: "vet care on demand",
	}, snap.Data)
	require.GreaterOrEqual(t, len(snap.Messages), 2)
	assert.Equal(t, plan.SenderSystem, snap.Messages[0].Sender)
	assert.Contains(t, snap.Messages[0].Text, "vet care on demand")

	savedStage, savedData, _ := store.Last()
	assert.Equal(t, catalog.FirstContent(), savedStage)
	assert.Len(t, savedData, 2)
}

func TestCompletedJourneyIsTerminal(t *testing.T) {
	eng, store, gen := openAt(t, catalog.StageComplete, nil)

	require.NoError(t, eng.SendMessage(context.Background(), "anything else?"))

	assert.Equal(t, catalog.StageComplete, eng.Snapshot().Stage)
	assert.True(t, eng.IsComplete())
	assert.Empty(t, gen.StageCalls)
	assert.Empty(t, gen.SummaryCalls)

	// The message still lands in the saved transcript even though the
	// journey no longer moves.
	assert.Equal(t, 1, store.Saves())
	savedStage, _, savedMsgs := store.Last()
	assert.Equal(t, catalog.StageComplete, savedStage)
	require.NotEmpty(t, savedMsgs)
	assert.Equal(t, "anything else?", savedMsgs[len(savedMsgs)-1].Text)
}

func TestBusyEngineRejectsConcurrentIntents(t *testing.T) {
	eng, _, gen := openAt(t, catalog.StageBMCCustomerSegments, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	gen.GenerateForStageFunc = func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error) {
		close(entered)
		<-release
		return Generated{Text: "generated"}, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- eng.SendMessage(context.Background(), "Pet owners")
	}()
	<-entered

	assert.True(t, eng.Busy())
	assert.ErrorIs(t, eng.SendMessage(context.Background(), "again"), ErrBusy)
	assert.ErrorIs(t, eng.RequestSuggestion(context.Background()), ErrBusy)
	assert.ErrorIs(t, eng.Restart(context.Background()), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, eng.Busy())
}

func TestReopenedProjectStaysBusyAfterOrphanedIntent(t *testing.T) {
	eng, _, gen := openAt(t, catalog.StageBMCCustomerSegments, nil)

	relA := make(chan struct{})
	relB := make(chan struct{})
	entered := make(chan struct{}, 2)
	releases := make(chan chan struct{}, 2)
	releases <- relA
	releases <- relB
	gen.GenerateForStageFunc = func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error) {
		rel := <-releases
		entered <- struct{}{}
		<-rel
		return Generated{Text: "generated"}, nil
	}

	orphaned := make(chan error, 1)
	go func() {
		orphaned <- eng.SendMessage(context.Background(), "Pet owners")
	}()
	<-entered

	// Switching projects mid-flight orphans the first intent.
	require.NoError(t, eng.Open(context.Background(), "proj-2"))

	inFlight := make(chan error, 1)
	go func() {
		inFlight <- eng.SendMessage(context.Background(), "City dwellers")
	}()
	<-entered

	// The orphaned intent finishing must not release the admission flag
	// held by the reopened project's intent.
	close(relA)
	require.NoError(t, <-orphaned)

	assert.True(t, eng.Busy())
	assert.ErrorIs(t, eng.SendMessage(context.Background(), "again"), ErrBusy)
	assert.ErrorIs(t, eng.RequestSuggestion(context.Background()), ErrBusy)

	close(relB)
	require.NoError(t, <-inFlight)
	assert.False(t, eng.Busy())
}

func TestPersistRetriesThenGivesUp(t *testing.T) {
	eng, store, _ := openAt(t, catalog.StageIdeaTitle, nil)
	store.SaveFunc = func(ctx context.Context, projectID string, stage catalog.Stage, data plan.Data, messages []plan.Message) error {
		return errors.New("disk full")
	}

	require.NoError(t, eng.SendMessage(context.Background(), "PawCare"))

	assert.Equal(t, 3, store.Saves())
	// In-memory state is kept optimistically.
	assert.Equal(t, catalog.StageElevatorPitch, eng.Snapshot().Stage)
}

func TestStaleGenerationResultDiscardedAfterReopen(t *testing.T) {
	eng, _, gen := openAt(t, catalog.StageBMCCustomerSegments, nil)
	gen.GenerateForStageFunc = func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error) {
		// The user switches projects while generation is in flight.
		require.NoError(t, eng.Open(ctx, "proj-2"))
		return Generated{Text: "late result"}, nil
	}

	require.NoError(t, eng.SendMessage(context.Background(), "Pet owners"))

	snap := eng.Snapshot()
	assert.Equal(t, catalog.StageBMCCustomerSegments, snap.Stage)
	assert.NotContains(t, snap.Data, "bmc_value_propositions")
	assert.Equal(t, "proj-2", eng.ProjectID())
}

func TestCompetitorPromptInterpolation(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageCompetitorIdentification, nil)

	require.NoError(t, eng.SendMessage(context.Background(), "Rover, Wag"))

	assert.Equal(t, catalog.StageCompetitorAnalysis, eng.Snapshot().Stage)
	assert.Contains(t, lastMessage(t, eng).Text, "Rover, Wag")
}

func TestCompetitorPromptFallbackWhenUnanswered(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageCompetitorIdentification, nil)

	require.NoError(t, eng.SendMessage(context.Background(), ""))

	assert.Contains(t, lastMessage(t, eng).Text, stagetext.System("your_competitors", plan.LocaleEN))
}

func TestFirstUncompletedStage(t *testing.T) {
	eng, _, _ := openAt(t, catalog.StageProblemDescription, plan.Data{
		"idea_title":        "PawCare",
		"executive_summary": "summary",
	})

	gap, ok := eng.FirstUncompletedStage()
	require.True(t, ok)
	assert.Equal(t, catalog.StageElevatorPitch, gap)

	eng, _, _ = openAt(t, catalog.StageProblemDescription, plan.Data{
		"idea_title":          "PawCare",
		"elevator_pitch":      "Uber for vets",
		"executive_summary":   "summary",
		"problem_description": "hard to reach vets",
	})
	_, ok = eng.FirstUncompletedStage()
	assert.False(t, ok)

	eng, _, _ = openAt(t, catalog.StageComplete, nil)
	_, ok = eng.FirstUncompletedStage()
	assert.False(t, ok)
}
