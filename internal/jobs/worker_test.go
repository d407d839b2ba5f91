package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
	mu    sync.Mutex
	calls int
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockJobProcessor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockBackfillAtomRepository is a mock implementation of BackfillAtomRepository
type MockBackfillAtomRepository struct {
	mock.Mock
}

func (m *MockBackfillAtomRepository) ListUnembedded(ctx context.Context, limit int) ([]*domain.Atom, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Atom), args.Error(1)
}

func (m *MockBackfillAtomRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	args := m.Called(ctx, id, embedding)
	return args.Error(0)
}

// MockBatchEmbedder is a mock implementation of BatchEmbedder
type MockBatchEmbedder struct {
	mock.Mock
}

func (m *MockBatchEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func TestWorker_RunsImmediatelyThenOnTicks(t *testing.T) {
	processor := &MockJobProcessor{}
	processor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(processor, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go worker.Start(ctx)

	time.Sleep(35 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	// One immediate run plus at least two ticks.
	assert.GreaterOrEqual(t, processor.callCount(), 3)
}

func TestWorker_StopIsGraceful(t *testing.T) {
	processor := &MockJobProcessor{}
	processor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(processor, 5*time.Millisecond)
	go worker.Start(context.Background())

	time.Sleep(12 * time.Millisecond)
	worker.Stop()

	count := processor.callCount()
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, count, processor.callCount())
}

func TestWorker_ProcessorErrorDoesNotStopLoop(t *testing.T) {
	processor := &MockJobProcessor{}
	processor.On("ProcessJobs", mock.Anything).Return(errors.New("boom"))

	worker := NewWorker(processor, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go worker.Start(ctx)

	time.Sleep(18 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	assert.GreaterOrEqual(t, processor.callCount(), 2)
}

func unembeddedAtom(id string) *domain.Atom {
	return &domain.Atom{
		ID:      id,
		Type:    domain.AtomTypeFault,
		Title:   "title " + id,
		Content: "content " + id,
	}
}

func TestBackfillWorker_EmbedsBatch(t *testing.T) {
	repo := &MockBackfillAtomRepository{}
	embedder := &MockBatchEmbedder{}

	atoms := []*domain.Atom{unembeddedAtom("a1"), unembeddedAtom("a2")}
	embeddings := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	repo.On("ListUnembedded", mock.Anything, 16).Return(atoms, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(embeddings, nil)
	repo.On("UpdateEmbedding", mock.Anything, "a1", embeddings[0]).Return(nil)
	repo.On("UpdateEmbedding", mock.Anything, "a2", embeddings[1]).Return(nil)

	worker := NewBackfillWorker(repo, embedder, 16)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	embedder.AssertExpectations(t)
}

func TestBackfillWorker_NothingPending(t *testing.T) {
	repo := &MockBackfillAtomRepository{}
	embedder := &MockBatchEmbedder{}

	repo.On("ListUnembedded", mock.Anything, 16).Return([]*domain.Atom{}, nil)

	worker := NewBackfillWorker(repo, embedder, 16)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	embedder.AssertNotCalled(t, "GenerateEmbeddings", mock.Anything, mock.Anything)
}

func TestBackfillWorker_ProviderFailureKeepsAtomsPending(t *testing.T) {
	repo := &MockBackfillAtomRepository{}
	embedder := &MockBatchEmbedder{}

	atoms := []*domain.Atom{unembeddedAtom("a1")}
	repo.On("ListUnembedded", mock.Anything, 16).Return(atoms, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

	worker := NewBackfillWorker(repo, embedder, 16)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateEmbedding", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackfillWorker_OneBadRowDoesNotStopBatch(t *testing.T) {
	repo := &MockBackfillAtomRepository{}
	embedder := &MockBatchEmbedder{}

	atoms := []*domain.Atom{unembeddedAtom("a1"), unembeddedAtom("a2")}
	embeddings := [][]float32{{0.1}, {0.2}}

	repo.On("ListUnembedded", mock.Anything, 16).Return(atoms, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(embeddings, nil)
	repo.On("UpdateEmbedding", mock.Anything, "a1", embeddings[0]).Return(errors.New("gone"))
	repo.On("UpdateEmbedding", mock.Anything, "a2", embeddings[1]).Return(nil)

	worker := NewBackfillWorker(repo, embedder, 16)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
