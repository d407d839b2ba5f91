package service

import (
	"context"
	"log"
	"time"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/pagination"
	"github.com/fieldstack/mechanic/internal/telemetry"
	"github.com/google/uuid"
)

// AtomRepositoryInterface defines the repository interface for atom persistence
type AtomRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Atom) error
	GetByID(ctx context.Context, id string) (*domain.Atom, error)
	Search(ctx context.Context, embedding []float32, filters SearchFilters, limit int) ([]*AtomMatch, error)
	IncrementUsage(ctx context.Context, id string) error
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	MarkVerified(ctx context.Context, id string, verifiedAt time.Time) error
	SetSupersededBy(ctx context.Context, oldID, newID string) error
	ListUnembedded(ctx context.Context, limit int) ([]*domain.Atom, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*AtomPageResult, error)
	Stats(ctx context.Context) (*StoreStats, error)
	TopByUsage(ctx context.Context, limit int) ([]*domain.Atom, error)
}

// GapRepositoryInterface defines the repository interface for gap persistence
type GapRepositoryInterface interface {
	CreateOrIncrement(ctx context.Context, g *domain.Gap, vendorBoost float64) (*domain.Gap, error)
	GetByID(ctx context.Context, id string) (*domain.Gap, error)
	PendingQueue(ctx context.Context, limit int) ([]*domain.Gap, error)
	MarkResolved(ctx context.Context, id string, status domain.ResearchStatus, resolvedAtomID string, resolvedAt time.Time) error
	MarkInProgress(ctx context.Context, id string) error
	CountPending(ctx context.Context) (int, error)
}

// SearchFilters narrows a similarity search before ranking. Zero values mean
// no filtering on that field.
type SearchFilters struct {
	Manufacturer  string
	EquipmentType string
	Types         []domain.AtomType
	MinConfidence float64
}

// AtomMatch pairs an atom with its raw cosine similarity to the query.
type AtomMatch struct {
	Atom       *domain.Atom
	Similarity float64
}

type AtomPageResult struct {
	Items      []*domain.Atom
	NextCursor string
	HasMore    bool
}

// StoreStats holds the knowledge-store monitoring counters.
type StoreStats struct {
	TotalAtoms    int     `json:"total_atoms"`
	VerifiedAtoms int     `json:"verified_atoms"`
	AvgConfidence float64 `json:"avg_confidence"`
	PendingGaps   int     `json:"pending_gaps"`
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// AtomEmbedder generates embeddings for atom content.
type AtomEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// AtomService handles business logic for knowledge atoms.
type AtomService struct {
	atomRepo AtomRepositoryInterface
	gapRepo  GapRepositoryInterface
	embedder AtomEmbedder
	txRunner TxRunner
	uuidGen  UUIDGenerator
}

// NewAtomService creates a new AtomService instance. embedder may be nil; new
// atoms are then left for the backfill worker.
func NewAtomService(
	atomRepo AtomRepositoryInterface,
	gapRepo GapRepositoryInterface,
	embedder AtomEmbedder,
	txRunner TxRunner,
) *AtomService {
	return &AtomService{
		atomRepo: atomRepo,
		gapRepo:  gapRepo,
		embedder: embedder,
		txRunner: txRunner,
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// NewAtomServiceWithUUIDGen creates a new AtomService with custom UUID generator (for testing)
func NewAtomServiceWithUUIDGen(
	atomRepo AtomRepositoryInterface,
	gapRepo GapRepositoryInterface,
	embedder AtomEmbedder,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
) *AtomService {
	s := NewAtomService(atomRepo, gapRepo, embedder, txRunner)
	s.uuidGen = uuidGen
	return s
}

// CreateAtomInput represents the input for creating a knowledge atom
type CreateAtomInput struct {
	Type          domain.AtomType
	Manufacturer  string
	Model         string
	EquipmentType string
	Title         string
	Content       string
	SourceURL     string
	Confidence    float64
	HumanVerified bool
}

// Create creates a new atom and embeds it inline when an embedder is
// available. An embedding failure does not fail the create; the atom is
// stored unembedded and picked up by the backfill worker.
func (s *AtomService) Create(ctx context.Context, input CreateAtomInput) (*domain.Atom, error) {
	ctx, span := telemetry.StartSpan(ctx, "AtomService.Create", telemetry.SpanAttributes{
		Vendor:    input.Manufacturer,
		Operation: "create",
	})
	defer span.End()

	atom := s.newAtomFromInput(input, time.Now().UTC())
	if err := domain.ValidateAtom(atom); err != nil {
		return nil, err
	}
	s.embedInline(ctx, atom)

	if err := s.atomRepo.Create(ctx, atom); err != nil {
		return nil, err
	}
	return atom, nil
}

func (s *AtomService) newAtomFromInput(input CreateAtomInput, now time.Time) *domain.Atom {
	return domain.NewAtom(
		s.uuidGen.NewString(), input.Type,
		input.Manufacturer, input.Model, input.EquipmentType,
		input.Title, input.Content, input.SourceURL,
		input.Confidence, input.HumanVerified, now,
	)
}

// embedInline embeds the atom when an embedder is wired. A failure leaves the
// atom unembedded for the backfill worker.
func (s *AtomService) embedInline(ctx context.Context, atom *domain.Atom) {
	if s.embedder == nil {
		return
	}
	embedding, err := s.embedder.GenerateEmbedding(ctx, EmbeddingText(atom))
	if err != nil {
		log.Printf("atom %s: inline embedding failed, deferring to backfill: %v", atom.ID, err)
		return
	}
	atom.Embedding = embedding
}

func (s *AtomService) Get(ctx context.Context, id string) (*domain.Atom, error) {
	return s.atomRepo.GetByID(ctx, id)
}

type ListAtomsInput struct {
	Cursor string
	Limit  int
}

func (s *AtomService) List(ctx context.Context, input ListAtomsInput) (*AtomPageResult, error) {
	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, &domain.DomainError{
			Code:    domain.ErrCodeValidation,
			Message: "invalid cursor",
			Err:     err,
		}
	}
	return s.atomRepo.ListWithCursor(ctx, cursor, input.Limit)
}

// Verify marks an atom as human verified, resetting its staleness clock.
func (s *AtomService) Verify(ctx context.Context, id string) (*domain.Atom, error) {
	ctx, span := telemetry.StartSpan(ctx, "AtomService.Verify", telemetry.SpanAttributes{
		AtomID:    id,
		Operation: "verify",
	})
	defer span.End()

	if err := s.atomRepo.MarkVerified(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.atomRepo.GetByID(ctx, id)
}

// Supersede creates a replacement atom and links the old one to it in a
// single transaction. The old atom stays readable but drops out of search.
func (s *AtomService) Supersede(ctx context.Context, oldID string, input CreateAtomInput) (*domain.Atom, error) {
	ctx, span := telemetry.StartSpan(ctx, "AtomService.Supersede", telemetry.SpanAttributes{
		AtomID:    oldID,
		Operation: "supersede",
	})
	defer span.End()

	old, err := s.atomRepo.GetByID(ctx, oldID)
	if err != nil {
		return nil, err
	}
	if !old.IsCurrent() {
		return nil, &domain.DomainError{
			Code:    domain.ErrCodeValidation,
			Message: "atom is already superseded",
		}
	}

	replacement := s.newAtomFromInput(input, time.Now().UTC())
	if err := domain.ValidateAtom(replacement); err != nil {
		return nil, err
	}
	s.embedInline(ctx, replacement)

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Atoms().Create(ctx, replacement); err != nil {
			return err
		}
		return repos.Atoms().SetSupersededBy(ctx, oldID, replacement.ID)
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// PromoteGap resolves a gap by creating the atom that answers it. The atom
// create and the gap state change commit together.
func (s *AtomService) PromoteGap(ctx context.Context, gapID string, input CreateAtomInput) (*domain.Atom, error) {
	ctx, span := telemetry.StartSpan(ctx, "AtomService.PromoteGap", telemetry.SpanAttributes{
		GapID:     gapID,
		Operation: "promote_gap",
	})
	defer span.End()

	gap, err := s.gapRepo.GetByID(ctx, gapID)
	if err != nil {
		return nil, err
	}
	if gap.IsResolved() {
		return nil, &domain.DomainError{
			Code:    domain.ErrCodeValidation,
			Message: "gap is already resolved",
		}
	}

	now := time.Now().UTC()
	atom := s.newAtomFromInput(input, now)
	if err := domain.ValidateAtom(atom); err != nil {
		return nil, err
	}
	s.embedInline(ctx, atom)

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Atoms().Create(ctx, atom); err != nil {
			return err
		}
		return repos.Gaps().MarkResolved(ctx, gapID, domain.ResearchStatusCompleted, atom.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return atom, nil
}

// Stats combines atom-store aggregates with the pending-gap count.
func (s *AtomService) Stats(ctx context.Context) (*StoreStats, error) {
	stats, err := s.atomRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.gapRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	stats.PendingGaps = pending
	return stats, nil
}

func (s *AtomService) TopByUsage(ctx context.Context, limit int) ([]*domain.Atom, error) {
	return s.atomRepo.TopByUsage(ctx, limit)
}

// EmbeddingText builds the canonical text an atom is embedded from. Title and
// identifying fields lead so short fault-code queries land near the right
// atoms.
func EmbeddingText(a *domain.Atom) string {
	text := a.Title
	if a.Manufacturer != "" {
		text += "\n" + a.Manufacturer
	}
	if a.Model != "" {
		text += " " + a.Model
	}
	if a.EquipmentType != "" {
		text += "\n" + a.EquipmentType
	}
	return text + "\n\n" + a.Content
}
