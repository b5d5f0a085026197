package scanning

import (
	"context"
	"errors"
)

var (
	// ErrInference is returned when the model call fails or its answer can't be read.
	ErrInference = errors.New("inference failed")
	// ErrExtraction is returned when the model answer contains a malformed item list.
	ErrExtraction = errors.New("extraction failed")
)

// Item is a grocery line item read off a receipt
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Scanner defines the interface for reading receipts with a vision model
type Scanner interface {
	// ReadReceipt sends the receipt image to the model and returns its raw text answer
	ReadReceipt(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
