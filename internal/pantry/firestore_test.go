package pantry

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// These specs need the Firestore emulator (gcloud emulators firestore start)
var _ = Describe("FirestoreDB", func() {
	var (
		db     *FirestoreDB
		ctx    context.Context
		userID string
		now    time.Time
	)

	BeforeEach(func() {
		if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
			Skip("FIRESTORE_EMULATOR_HOST not set")
		}
		ctx = context.Background()
		var err error
		db, err = NewFirestoreDB(ctx, "pantry-scanner-test")
		Expect(err).NotTo(HaveOccurred())
		userID = "user-" + uuid.NewString()
		now = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveRecords", func() {
		It("should store every record under the user", func() {
			Expect(db.SaveRecords(ctx, []*Record{
				{ID: uuid.NewString(), UserID: userID, Name: "Milk", Quantity: 2, Source: SourceReceipt, CreatedAt: now},
				{ID: uuid.NewString(), UserID: userID, Name: "Eggs", Quantity: 1, Source: SourceReceipt, CreatedAt: now},
			})).To(Succeed())

			records, err := db.ListRecords(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			for _, record := range records {
				Expect(record.UserID).To(Equal(userID))
				Expect(record.Source).To(Equal(SourceReceipt))
				Expect(record.ID).NotTo(BeEmpty())
			}
		})

		It("should roll back the batch when one write is rejected", func() {
			duplicate := uuid.NewString()
			Expect(db.SaveRecords(ctx, []*Record{
				{ID: duplicate, UserID: userID, Name: "Milk", Quantity: 1, Source: SourceReceipt, CreatedAt: now},
			})).To(Succeed())

			err := db.SaveRecords(ctx, []*Record{
				{ID: uuid.NewString(), UserID: userID, Name: "Bread", Quantity: 1, Source: SourceReceipt, CreatedAt: now},
				{ID: duplicate, UserID: userID, Name: "Milk again", Quantity: 1, Source: SourceReceipt, CreatedAt: now},
			})
			Expect(err).To(HaveOccurred())

			records, err := db.ListRecords(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Name).To(Equal("Milk"))
		})
	})

	Describe("profiles", func() {
		It("should create the profile once and merge updates", func() {
			profile, err := db.GetOrCreateProfile(ctx, userID, &Profile{ProteinTarget: DefaultProteinTarget, CreatedAt: &now})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.ProteinTarget).To(Equal(float64(DefaultProteinTarget)))

			Expect(db.MergeProteinTarget(ctx, userID, 200, now.Add(time.Hour))).To(Succeed())

			profile, err = db.GetOrCreateProfile(ctx, userID, &Profile{ProteinTarget: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.ProteinTarget).To(Equal(200.0))
			Expect(profile.CreatedAt).NotTo(BeNil())
			Expect(profile.CreatedAt.Equal(now)).To(BeTrue())
		})
	})

	Describe("NewFirestoreDB", func() {
		It("should require a project ID", func() {
			_, err := NewFirestoreDB(ctx, "")
			Expect(err).To(HaveOccurred())
		})
	})
})
