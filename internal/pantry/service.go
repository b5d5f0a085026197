package pantry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/pantry-scanner/internal/scanning"
)

// DefaultMaxItems caps how many items one receipt may add
const DefaultMaxItems = 100

// IDGenerator generates unique IDs for pantry records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// Service handles receipt scans and profile operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
	maxItems    int
}

// NewService creates a new Service with a UUID generator and the system clock.
// maxItems <= 0 falls back to DefaultMaxItems.
func NewService(db DB, scanner scanning.Scanner, maxItems int) *Service {
	return NewServiceWithDeps(db, scanner, &uuidGenerator{}, &defaultTimeSource{}, maxItems)
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, idGen IDGenerator, timeSrc TimeSource, maxItems int) *Service {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Service{
		db:          db,
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
		maxItems:    maxItems,
	}
}

// Scan reads a receipt with the model, extracts its items and adds them to the user's pantry.
// It returns the items that were committed.
func (s *Service) Scan(ctx context.Context, req ScanRequest) ([]scanning.Item, error) {
	logger := slog.With("user", req.UserID)
	if err := req.Validate(); err != nil {
		logger.Warn("Rejected scan request",
			"stage", "validation",
			"content_type", req.ContentType,
			"file_size", len(req.Image),
			"error", err,
		)
		return nil, err
	}

	text, err := s.scanner.ReadReceipt(ctx, req.Image, req.ContentType)
	if err != nil {
		logger.Error("Failed to read receipt",
			"stage", "inference",
			"content_type", req.ContentType,
			"file_size", len(req.Image),
			"error", err,
		)
		return nil, fmt.Errorf("%w: reading receipt: %w", scanning.ErrInference, err)
	}

	items, err := scanning.ExtractItems(text)
	if err != nil {
		logger.Error("Failed to extract receipt items", "stage", "extraction", "response", text, "error", err)
		return nil, fmt.Errorf("extracting items: %w", err)
	}
	if len(items) > s.maxItems {
		err := fmt.Errorf("%w: %d items exceeds the limit of %d", scanning.ErrExtraction, len(items), s.maxItems)
		logger.Error("Too many receipt items", "stage", "extraction", "error", err)
		return nil, err
	}

	written, err := s.AddItems(ctx, req.UserID, items)
	if err != nil {
		logger.Error("Failed to save pantry items", "stage", "persistence", "items", len(items), "error", err)
		return nil, err
	}

	logger.Info("Scanned receipt", "items", written)
	return items, nil
}

// AddItems stores one receipt-sourced record per item for the user as a single batch.
// All records share the same creation time. An empty list writes nothing.
func (s *Service) AddItems(ctx context.Context, userID string, items []scanning.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	now := s.timeSource.Now()
	records := make([]*Record, 0, len(items))
	for _, item := range items {
		records = append(records, &Record{
			ID:        s.idGenerator.Generate(),
			UserID:    userID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Source:    SourceReceipt,
			CreatedAt: now,
		})
	}

	if err := s.db.SaveRecords(ctx, records); err != nil {
		return 0, fmt.Errorf("%w: saving pantry records: %w", ErrPersistence, err)
	}
	return len(records), nil
}

// Pantry returns the user's pantry records
func (s *Service) Pantry(ctx context.Context, userID string) ([]*Record, error) {
	records, err := s.db.ListRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing pantry records: %w", ErrPersistence, err)
	}
	return records, nil
}

// Profile returns the user's profile, creating it with the default protein target on first access
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	now := s.timeSource.Now()
	profile, err := s.db.GetOrCreateProfile(ctx, userID, &Profile{
		ProteinTarget: DefaultProteinTarget,
		CreatedAt:     &now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: getting profile: %w", ErrPersistence, err)
	}
	return profile, nil
}

// SetProteinTarget validates and stores the user's daily protein target
func (s *Service) SetProteinTarget(ctx context.Context, userID string, proteinTarget float64) error {
	if !(proteinTarget >= MinProteinTarget && proteinTarget <= MaxProteinTarget) {
		return fmt.Errorf("%w: protein target must be between %d and %d", ErrValidation, MinProteinTarget, MaxProteinTarget)
	}

	if err := s.db.MergeProteinTarget(ctx, userID, proteinTarget, s.timeSource.Now()); err != nil {
		return fmt.Errorf("%w: updating protein target: %w", ErrPersistence, err)
	}
	return nil
}
