package pantry

import (
	"errors"
	"fmt"
	"time"

	"github.com/zombor/pantry-scanner/internal/scanning"
)

const (
	// SourceReceipt marks pantry records created from a scanned receipt
	SourceReceipt = "receipt"

	DefaultProteinTarget = 140
	MinProteinTarget     = 30
	MaxProteinTarget     = 300
)

var (
	// ErrValidation is returned when caller-supplied input is rejected
	ErrValidation = errors.New("invalid request")
	// ErrPersistence is returned when the store rejects a read or write
	ErrPersistence = errors.New("persistence failed")
)

// Record is a pantry item owned by a user
type Record struct {
	ID        string    `json:"id" firestore:"-"`
	UserID    string    `json:"uid" firestore:"uid"`
	Name      string    `json:"name" firestore:"name"`
	Quantity  float64   `json:"quantity" firestore:"quantity"`
	Source    string    `json:"source" firestore:"source"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Profile holds a user's settings, keyed by user ID
type Profile struct {
	ProteinTarget float64    `json:"proteinTarget" firestore:"proteinTarget"`
	CreatedAt     *time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

// ScanRequest is a single receipt upload from a verified user
type ScanRequest struct {
	Image       []byte
	ContentType string
	UserID      string
}

// Validate rejects requests the scanner can't handle
func (r ScanRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if len(r.Image) == 0 {
		return fmt.Errorf("%w: image is empty", ErrValidation)
	}
	if !scanning.IsAcceptedMimeType(r.ContentType) {
		return fmt.Errorf("%w: unsupported image type %q", ErrValidation, r.ContentType)
	}
	return nil
}
