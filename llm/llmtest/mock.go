// Package llmtest provides a scripted language model for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/hoangvvo/guide-agent/llm"
)

// MockGenerateResult is a result for a mocked Generate call.
// It can either be a full response or an error.
type MockGenerateResult struct {
	Response *llm.ModelResponse
	Error    error
}

// NewMockGenerateResultResponse constructs a generate result with a response.
func NewMockGenerateResultResponse(response llm.ModelResponse) MockGenerateResult {
	return MockGenerateResult{
		Response: &response,
	}
}

// NewMockGenerateResultError constructs a generate result that yields an error.
func NewMockGenerateResultError(err error) MockGenerateResult {
	return MockGenerateResult{
		Error: err,
	}
}

// NewMockGenerateResultText is shorthand for a response holding a single text part.
func NewMockGenerateResultText(text string) MockGenerateResult {
	return NewMockGenerateResultResponse(llm.ModelResponse{
		Content: []llm.Part{llm.NewTextPart(text)},
	})
}

// MockLanguageModel is a mock language model for testing purposes
// that tracks inputs and returns predefined outputs.
type MockLanguageModel struct {
	mu sync.Mutex

	mockedGenerateResults []MockGenerateResult
	trackedGenerateInputs []llm.LanguageModelInput

	provider string
	modelID  string
}

// NewMockLanguageModel constructs a mock language model instance.
func NewMockLanguageModel() *MockLanguageModel {
	return &MockLanguageModel{
		mockedGenerateResults: []MockGenerateResult{},
		trackedGenerateInputs: []llm.LanguageModelInput{},
		provider:              "mock",
		modelID:               "mock-model",
	}
}

func (m *MockLanguageModel) Provider() string {
	return m.provider
}

func (m *MockLanguageModel) SetProvider(provider string) {
	m.provider = provider
}

func (m *MockLanguageModel) ModelID() string {
	return m.modelID
}

func (m *MockLanguageModel) SetModelID(modelID string) {
	m.modelID = modelID
}

// Generate returns the next mocked generate result, tracking the provided input.
func (m *MockLanguageModel) Generate(_ context.Context, input *llm.LanguageModelInput) (*llm.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.mockedGenerateResults) == 0 {
		return nil, errors.New("no mocked generate results available")
	}

	result := m.mockedGenerateResults[0]
	m.mockedGenerateResults = m.mockedGenerateResults[1:]
	m.trackedGenerateInputs = append(m.trackedGenerateInputs, *input)

	if result.Error != nil {
		return nil, result.Error
	}

	return result.Response, nil
}

// EnqueueGenerateResult enqueues generate results to be returned sequentially.
func (m *MockLanguageModel) EnqueueGenerateResult(results ...MockGenerateResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mockedGenerateResults = append(m.mockedGenerateResults, results...)
}

// TrackedGenerateInputs returns the list of inputs tracked from Generate calls.
func (m *MockLanguageModel) TrackedGenerateInputs() []llm.LanguageModelInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.LanguageModelInput(nil), m.trackedGenerateInputs...)
}

// Reset clears tracked inputs without touching enqueued results.
func (m *MockLanguageModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackedGenerateInputs = []llm.LanguageModelInput{}
}

// Restore clears enqueued results and tracked inputs, returning the mock to its initial state.
func (m *MockLanguageModel) Restore() {
	m.mu.Lock()
	m.mockedGenerateResults = []MockGenerateResult{}
	m.mu.Unlock()
	m.Reset()
}

var _ llm.LanguageModel = (*MockLanguageModel)(nil)
