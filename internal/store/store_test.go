package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "PawCare", "vet care on demand")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stage, data, messages, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, catalog.FirstContent(), stage)
	assert.Equal(t, "PawCare", data[plan.KeyProjectName])
	assert.Equal(t, "vet care on demand", data[plan.KeyInitialIdea])
	assert.Empty(t, messages)
}

func TestLoadMissingProject(t *testing.T) {
	s := newTestStore(t)
	_, _, _, err := s.Load(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "PawCare", "vet care on demand")
	require.NoError(t, err)

	data := plan.Data{
		plan.KeyProjectName: "PawCare",
		plan.KeyInitialIdea: "vet care on demand",
		"idea_title":        "PawCare",
	}
	messages := []plan.Message{
		{ID: "m1", Text: "What is your idea called?", Sender: plan.SenderAI},
		{ID: "m2", Text: "PawCare", Sender: plan.SenderUser},
		{ID: "m3", Text: "Generated pitch", Sender: plan.SenderAI,
			Sources: []plan.Source{{URI: "https://example.com", Title: "Example"}}},
	}
	require.NoError(t, s.Save(ctx, id, catalog.StageElevatorPitch, data, messages))

	stage, gotData, gotMsgs, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, catalog.StageElevatorPitch, stage)
	assert.Equal(t, data, gotData)
	assert.Equal(t, messages, gotMsgs)
}

func TestSaveUpsertsMissingRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	data := plan.Data{plan.KeyProjectName: "Fresh"}
	require.NoError(t, s.Save(ctx, "fresh-id", catalog.StageIdeaTitle, data, nil))

	stage, gotData, messages, err := s.Load(ctx, "fresh-id")
	require.NoError(t, err)
	assert.Equal(t, catalog.StageIdeaTitle, stage)
	assert.Equal(t, "Fresh", gotData[plan.KeyProjectName])
	assert.Empty(t, messages)
}

func TestListOrdersByRecency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, "First", "idea one")
	require.NoError(t, err)
	second, err := s.Create(ctx, "Second", "idea two")
	require.NoError(t, err)

	// Touch the first project so it becomes the most recent.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Save(ctx, first,
		catalog.StageElevatorPitch, plan.Data{plan.KeyProjectName: "First"}, nil))

	projects, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, first, projects[0].ID)
	assert.Equal(t, second, projects[1].ID)
	assert.Equal(t, catalog.StageElevatorPitch, projects[0].Stage)
}

func TestRename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "Old Name", "idea")
	require.NoError(t, err)

	require.NoError(t, s.Rename(ctx, id, "New Name"))

	p, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New Name", p.Name)

	_, data, _, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New Name", data[plan.KeyProjectName])

	assert.ErrorIs(t, s.Rename(ctx, "no-such-id", "x"), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "PawCare", "idea")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, _, _, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}
