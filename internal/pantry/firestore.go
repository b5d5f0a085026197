package pantry

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection  = "users"
	pantryCollection = "pantry"
)

// FirestoreDB implements the DB interface using Cloud Firestore.
// Profiles are users/{uid}; records are users/{uid}/pantry/{id}.
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB creates a Firestore-backed DB for the given project ID
func NewFirestoreDB(ctx context.Context, projectID string) (*FirestoreDB, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &FirestoreDB{client: client}, nil
}

func (f *FirestoreDB) userDoc(userID string) *firestore.DocumentRef {
	return f.client.Collection(usersCollection).Doc(userID)
}

// SaveRecords creates every record document inside one transaction
func (f *FirestoreDB) SaveRecords(ctx context.Context, records []*Record) error {
	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, record := range records {
			if record.ID == "" || record.UserID == "" {
				return fmt.Errorf("record id and user id are required")
			}
			ref := f.userDoc(record.UserID).Collection(pantryCollection).Doc(record.ID)
			if err := tx.Create(ref, record); err != nil {
				return fmt.Errorf("creating record %s: %w", record.ID, err)
			}
		}
		return nil
	})
}

// ListRecords returns the user's records ordered by creation time
func (f *FirestoreDB) ListRecords(ctx context.Context, userID string) ([]*Record, error) {
	docs, err := f.userDoc(userID).Collection(pantryCollection).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}

	records := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		var record Record
		if err := doc.DataTo(&record); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", doc.Ref.ID, err)
		}
		record.ID = doc.Ref.ID
		records = append(records, &record)
	}
	return records, nil
}

// GetOrCreateProfile reads the profile document and creates it from defaults when missing
func (f *FirestoreDB) GetOrCreateProfile(ctx context.Context, userID string, defaults *Profile) (*Profile, error) {
	ref := f.userDoc(userID)
	var profile Profile
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			profile = *defaults
			return tx.Create(ref, &profile)
		}
		if err != nil {
			return err
		}
		profile = Profile{}
		return snap.DataTo(&profile)
	})
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return &profile, nil
}

// MergeProteinTarget merge-sets the protein target on the profile document
func (f *FirestoreDB) MergeProteinTarget(ctx context.Context, userID string, proteinTarget float64, updatedAt time.Time) error {
	_, err := f.userDoc(userID).Set(ctx, map[string]any{
		"proteinTarget": proteinTarget,
		"updatedAt":     updatedAt,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// Close closes the Firestore client
func (f *FirestoreDB) Close() error {
	return f.client.Close()
}
