package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	require.Equal(t, StageInitial, All[0])
	require.Equal(t, StageComplete, All[len(All)-1])
	require.Equal(t, StageIdeaTitle, FirstContent())

	// No duplicates; ordinals must define a total order.
	seen := make(map[Stage]bool)
	for _, s := range All {
		assert.False(t, seen[s], "duplicate stage %s", s)
		seen[s] = true
	}

	// Eight phases, each ending in a summary stage.
	require.Len(t, PhaseOrder, 8)
	for _, p := range PhaseOrder {
		stages := PhaseStages[p]
		require.NotEmpty(t, stages, "phase %s has no stages", p)
		last := stages[len(stages)-1]
		assert.True(t, IsSummary(last), "phase %s does not end in a summary stage (%s)", p, last)
	}
}

func TestOrdinalAndNext(t *testing.T) {
	for i, s := range All {
		assert.Equal(t, i, Ordinal(s))
	}

	next, ok := Next(StageIdeaTitle)
	require.True(t, ok)
	assert.Equal(t, StageElevatorPitch, next)

	_, ok = Next(StageComplete)
	assert.False(t, ok)

	assert.Panics(t, func() { Ordinal(Stage("NO_SUCH_STAGE")) })
}

func TestDataKey(t *testing.T) {
	key, ok := DataKey(StageIdeaTitle)
	require.True(t, ok)
	assert.Equal(t, "idea_title", key)

	key, ok = DataKey(StageProblemDescription)
	require.True(t, ok)
	assert.Equal(t, "problem_description", key)

	_, ok = DataKey(StageInitial)
	assert.False(t, ok)
	_, ok = DataKey(StageComplete)
	assert.False(t, ok)

	// Every content stage has a distinct lowercase key.
	keys := make(map[string]Stage)
	for _, s := range All[1 : len(All)-1] {
		k, ok := DataKey(s)
		require.True(t, ok, "content stage %s has no data key", s)
		assert.Equal(t, strings.ToLower(k), k)
		prev, dup := keys[k]
		assert.False(t, dup, "key %s shared by %s and %s", k, prev, s)
		keys[k] = s
	}
}

func TestClassification(t *testing.T) {
	assert.True(t, IsSummary(StageMarketAnalysisSummary))
	assert.True(t, IsSummary(StageComplete))
	// The suffix rule also catches these two mid-phase stages.
	assert.True(t, IsSummary(StageExecutiveSummary))
	assert.True(t, IsSummary(StageValidationSummary))
	assert.False(t, IsSummary(StageIdeaTitle))

	for _, s := range []Stage{
		StageBMCValuePropositions, StageBMCKeyActivities,
		StageBMCKeyResources, StageBMCCostStructure,
	} {
		assert.True(t, IsAutoGenerated(s), "%s should be auto-generated", s)
	}
	assert.True(t, IsAutoGenerated(StageBusinessModelingSummary))
	assert.False(t, IsAutoGenerated(StageBMCChannels))
	assert.False(t, IsAutoGenerated(StageIdeaTitle))
}

func TestPhaseOfAndProgress(t *testing.T) {
	assert.Equal(t, PhaseCoreConcept, PhaseOf(StageIdeaTitle))
	assert.Equal(t, PhaseBusinessModeling, PhaseOf(StageBMCChannels))
	assert.Equal(t, Phase(""), PhaseOf(StageInitial))
	assert.Equal(t, Phase(""), PhaseOf(StageComplete))

	assert.Equal(t, 0.0, Progress(StageInitial))
	assert.Equal(t, 1.0, Progress(StageComplete))
	mid := Progress(StageBMCChannels)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1.0)
}
