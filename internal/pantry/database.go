package pantry

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	pantryBucketName  = "pantry"
	profileBucketName = "profiles"
)

// DB defines the interface for document store operations
type DB interface {
	// SaveRecords commits all records in one atomic write; on error none are stored
	SaveRecords(ctx context.Context, records []*Record) error

	// ListRecords returns a user's pantry records, oldest first
	ListRecords(ctx context.Context, userID string) ([]*Record, error)

	// GetOrCreateProfile returns the user's profile, storing defaults first if it doesn't exist
	GetOrCreateProfile(ctx context.Context, userID string, defaults *Profile) (*Profile, error)

	// MergeProteinTarget updates the protein target, creating the profile if needed
	MergeProteinTarget(ctx context.Context, userID string, proteinTarget float64, updatedAt time.Time) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
// Records live in a per-user bucket inside the pantry bucket, keyed by insertion sequence.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(pantryBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(profileBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveRecords writes every record inside a single transaction
func (b *BoltDB) SaveRecords(_ context.Context, records []*Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		pantry := tx.Bucket([]byte(pantryBucketName))
		for _, record := range records {
			if record.ID == "" {
				return fmt.Errorf("record id is required")
			}
			userBucket, err := pantry.CreateBucketIfNotExists([]byte(record.UserID))
			if err != nil {
				return fmt.Errorf("creating bucket for user %q: %w", record.UserID, err)
			}
			seq, err := userBucket.NextSequence()
			if err != nil {
				return fmt.Errorf("allocating record key: %w", err)
			}
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("marshaling record: %w", err)
			}
			if err := userBucket.Put(sequenceKey(seq), data); err != nil {
				return fmt.Errorf("putting record %s: %w", record.ID, err)
			}
		}
		return nil
	})
}

// ListRecords returns all records for a user in insertion order
func (b *BoltDB) ListRecords(_ context.Context, userID string) ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		userBucket := tx.Bucket([]byte(pantryBucketName)).Bucket([]byte(userID))
		if userBucket == nil {
			return nil
		}
		return userBucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetOrCreateProfile reads the profile and stores the defaults in the same transaction when missing
func (b *BoltDB) GetOrCreateProfile(_ context.Context, userID string, defaults *Profile) (*Profile, error) {
	var profile Profile
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profileBucketName))
		if data := bucket.Get([]byte(userID)); data != nil {
			return json.Unmarshal(data, &profile)
		}
		profile = *defaults
		data, err := json.Marshal(&profile)
		if err != nil {
			return fmt.Errorf("marshaling profile: %w", err)
		}
		return bucket.Put([]byte(userID), data)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// MergeProteinTarget sets the protein target and update time, keeping the other fields
func (b *BoltDB) MergeProteinTarget(_ context.Context, userID string, proteinTarget float64, updatedAt time.Time) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profileBucketName))
		var profile Profile
		if data := bucket.Get([]byte(userID)); data != nil {
			if err := json.Unmarshal(data, &profile); err != nil {
				return fmt.Errorf("unmarshaling profile: %w", err)
			}
		}
		profile.ProteinTarget = proteinTarget
		profile.UpdatedAt = &updatedAt
		data, err := json.Marshal(&profile)
		if err != nil {
			return fmt.Errorf("marshaling profile: %w", err)
		}
		return bucket.Put([]byte(userID), data)
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
