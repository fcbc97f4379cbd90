package journey

import (
	"context"
	"sync"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
)

// --- MockGenerator ---

type MockGenerator struct {
	GenerateForStageFunc       func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error)
	GenerateSectionSummaryFunc func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (string, error)
	GenerateSuggestionFunc     func(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) (string, error)
	RefineTextFunc             func(ctx context.Context, original, instruction string, data plan.Data, locale plan.Locale) (string, error)

	mu             sync.Mutex
	StageCalls     []catalog.Stage
	SummaryCalls   []catalog.Stage
	SuggestionHits int
}

func (m *MockGenerator) GenerateForStage(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (Generated, error) {
	m.mu.Lock()
	m.StageCalls = append(m.StageCalls, stage)
	m.mu.Unlock()
	if m.GenerateForStageFunc != nil {
		return m.GenerateForStageFunc(ctx, stage, data, locale)
	}
	return Generated{Text: "generated for " + string(stage)}, nil
}

func (m *MockGenerator) GenerateSectionSummary(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (string, error) {
	m.mu.Lock()
	m.SummaryCalls = append(m.SummaryCalls, stage)
	m.mu.Unlock()
	if m.GenerateSectionSummaryFunc != nil {
		return m.GenerateSectionSummaryFunc(ctx, stage, data, locale)
	}
	return "summary of " + string(stage), nil
}

func (m *MockGenerator) GenerateSuggestion(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) (string, error) {
	m.mu.Lock()
	m.SuggestionHits++
	m.mu.Unlock()
	if m.GenerateSuggestionFunc != nil {
		return m.GenerateSuggestionFunc(ctx, stage, data, locale, userHint)
	}
	return "suggested answer", nil
}

func (m *MockGenerator) RefineText(ctx context.Context, original, instruction string, data plan.Data, locale plan.Locale) (string, error) {
	if m.RefineTextFunc != nil {
		return m.RefineTextFunc(ctx, original, instruction, data, locale)
	}
	return original + " (refined: " + instruction + ")", nil
}

// --- MockStore ---

type MockStore struct {
	LoadFunc func(ctx context.Context, projectID string) (catalog.Stage, plan.Data, []plan.Message, error)
	SaveFunc func(ctx context.Context, projectID string, stage catalog.Stage, data plan.Data, messages []plan.Message) error

	mu         sync.Mutex
	SaveCount  int
	LastStage  catalog.Stage
	LastData   plan.Data
	LastMsgs   []plan.Message
	LastSaveID string
}

func (m *MockStore) Load(ctx context.Context, projectID string) (catalog.Stage, plan.Data, []plan.Message, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, projectID)
	}
	return catalog.FirstContent(), plan.Data{}, nil, nil
}

func (m *MockStore) Save(ctx context.Context, projectID string, stage catalog.Stage, data plan.Data, messages []plan.Message) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, projectID, stage, data, messages); err != nil {
			m.mu.Lock()
			m.SaveCount++
			m.mu.Unlock()
			return err
		}
	}
	m.mu.Lock()
	m.SaveCount++
	m.LastSaveID = projectID
	m.LastStage = stage
	m.LastData = data.Clone()
	m.LastMsgs = plan.CloneMessages(messages)
	m.mu.Unlock()
	return nil
}

func (m *MockStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SaveCount
}

func (m *MockStore) Last() (catalog.Stage, plan.Data, []plan.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastStage, m.LastData.Clone(), plan.CloneMessages(m.LastMsgs)
}
