package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	dbpkg "github.com/chitworks/chitfund-api/internal/db"
	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedScheme(t *testing.T, conn *gorm.DB, members int) models.ChitScheme {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	scheme := models.ChitScheme{
		Name:            "Daily 100",
		TotalValue:      100000,
		Duration:        100,
		DurationType:    models.DurationDays,
		Frequency:       models.FrequencyDaily,
		AmountPerPeriod: 100,
		NumberOfMembers: members,
		StartDate:       start,
		Status:          models.SchemeActive,
	}
	scheme.EndDate = scheme.ComputeEndDate()
	if errCreate := conn.Create(&scheme).Error; errCreate != nil {
		t.Fatalf("seed scheme: %v", errCreate)
	}
	return scheme
}

func seedCustomer(t *testing.T, conn *gorm.DB, name, mobile string) models.Customer {
	t.Helper()
	customer := models.Customer{Name: name, Mobile: mobile, Active: true}
	if errCreate := conn.Create(&customer).Error; errCreate != nil {
		t.Fatalf("seed customer: %v", errCreate)
	}
	return customer
}

func schemeByID(t *testing.T, conn *gorm.DB, id uint64) models.ChitScheme {
	t.Helper()
	var scheme models.ChitScheme
	if errFind := conn.First(&scheme, id).Error; errFind != nil {
		t.Fatalf("load scheme: %v", errFind)
	}
	return scheme
}

func enrollmentByID(t *testing.T, conn *gorm.DB, id uint64) models.CustomerScheme {
	t.Helper()
	var enrollment models.CustomerScheme
	if errFind := conn.First(&enrollment, id).Error; errFind != nil {
		t.Fatalf("load enrollment: %v", errFind)
	}
	return enrollment
}

func TestEnrollIncrementsCounterAndSetsBalance(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID:   customer.ID,
		SchemeID:     scheme.ID,
		AmountPerDay: 450,
		Duration:     100,
		StartDate:    scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	if enrollment.Balance != 45000 {
		t.Fatalf("balance = %v, want 45000", enrollment.Balance)
	}
	if got := schemeByID(t, conn, scheme.ID).MembersEnrolled; got != 1 {
		t.Fatalf("members enrolled = %d, want 1", got)
	}
}

func TestEnrollCapacityScenario(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 2)
	a := seedCustomer(t, conn, "A", "9000000010")
	b := seedCustomer(t, conn, "B", "9000000011")
	c := seedCustomer(t, conn, "C", "9000000012")

	in := EnrollInput{SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate}

	in.CustomerID = a.ID
	if _, errEnroll := svc.Enroll(context.Background(), in); errEnroll != nil {
		t.Fatalf("enroll A: %v", errEnroll)
	}
	if got := schemeByID(t, conn, scheme.ID).MembersEnrolled; got != 1 {
		t.Fatalf("after A: members = %d, want 1", got)
	}

	in.CustomerID = b.ID
	if _, errEnroll := svc.Enroll(context.Background(), in); errEnroll != nil {
		t.Fatalf("enroll B: %v", errEnroll)
	}
	if got := schemeByID(t, conn, scheme.ID).MembersEnrolled; got != 2 {
		t.Fatalf("after B: members = %d, want 2", got)
	}

	in.CustomerID = c.ID
	if _, errEnroll := svc.Enroll(context.Background(), in); !errors.Is(errEnroll, ErrCapacityExceeded) {
		t.Fatalf("enroll C err = %v, want ErrCapacityExceeded", errEnroll)
	}
	if got := schemeByID(t, conn, scheme.ID).MembersEnrolled; got != 2 {
		t.Fatalf("after C: members = %d, want 2", got)
	}
}

func TestEnrollDuplicatePairRejected(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	in := EnrollInput{CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate}
	if _, errEnroll := svc.Enroll(context.Background(), in); errEnroll != nil {
		t.Fatalf("first enroll: %v", errEnroll)
	}
	if _, errEnroll := svc.Enroll(context.Background(), in); !errors.Is(errEnroll, ErrAlreadyEnrolled) {
		t.Fatalf("second enroll err = %v, want ErrAlreadyEnrolled", errEnroll)
	}

	var count int64
	conn.Model(&models.CustomerScheme{}).
		Where("customer_id = ? AND scheme_id = ?", customer.ID, scheme.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("enrollment rows = %d, want 1", count)
	}
}

func TestEnrollMissingSchemeOrCustomer(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	if _, errEnroll := svc.Enroll(context.Background(), EnrollInput{CustomerID: customer.ID, SchemeID: 999}); !errors.Is(errEnroll, ErrNotFound) {
		t.Fatalf("missing scheme err = %v, want ErrNotFound", errEnroll)
	}
	if _, errEnroll := svc.Enroll(context.Background(), EnrollInput{CustomerID: 999, SchemeID: scheme.ID}); !errors.Is(errEnroll, ErrNotFound) {
		t.Fatalf("missing customer err = %v, want ErrNotFound", errEnroll)
	}
}

func TestUnenrollRestoresCounter(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	before := schemeByID(t, conn, scheme.ID).MembersEnrolled
	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	if errUnenroll := svc.Unenroll(context.Background(), enrollment.ID); errUnenroll != nil {
		t.Fatalf("unenroll: %v", errUnenroll)
	}
	if got := schemeByID(t, conn, scheme.ID).MembersEnrolled; got != before {
		t.Fatalf("members = %d, want %d", got, before)
	}
}

func TestUnenrollBlockedByDependents(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	if _, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
		CustomerID:       customer.ID,
		CustomerSchemeID: &enrollment.ID,
		Date:             time.Now(),
		AmountPaid:       100,
		BalanceRemaining: 900,
		PaymentMethod:    models.PaymentCash,
	}); errRecord != nil {
		t.Fatalf("record collection: %v", errRecord)
	}

	if errUnenroll := svc.Unenroll(context.Background(), enrollment.ID); !errors.Is(errUnenroll, ErrHasDependents) {
		t.Fatalf("unenroll err = %v, want ErrHasDependents", errUnenroll)
	}
}

func TestUnenrollCompletedRejected(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	if errUpdate := conn.Model(&models.CustomerScheme{}).
		Where("id = ?", enrollment.ID).
		UpdateColumn("status", models.EnrollmentCompleted).Error; errUpdate != nil {
		t.Fatalf("mark completed: %v", errUpdate)
	}

	if errUnenroll := svc.Unenroll(context.Background(), enrollment.ID); !errors.Is(errUnenroll, ErrCompleted) {
		t.Fatalf("unenroll err = %v, want ErrCompleted", errUnenroll)
	}
	if got := enrollmentByID(t, conn, enrollment.ID).Status; got != models.EnrollmentCompleted {
		t.Fatalf("status = %q after failed delete", got)
	}
}

func TestCollectionRoundTripRestoresBalance(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 450, Duration: 100, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	if enrollment.Balance != 45000 {
		t.Fatalf("starting balance = %v, want 45000", enrollment.Balance)
	}

	collection, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
		CustomerID:       customer.ID,
		CustomerSchemeID: &enrollment.ID,
		Date:             time.Now(),
		AmountPaid:       500,
		BalanceRemaining: 44500,
		PaymentMethod:    models.PaymentCash,
	})
	if errRecord != nil {
		t.Fatalf("record collection: %v", errRecord)
	}
	if got := enrollmentByID(t, conn, enrollment.ID).Balance; got != 44500 {
		t.Fatalf("balance after record = %v, want 44500", got)
	}

	if errDelete := svc.DeleteCollection(context.Background(), collection.ID); errDelete != nil {
		t.Fatalf("delete collection: %v", errDelete)
	}
	if got := enrollmentByID(t, conn, enrollment.ID).Balance; got != 45000 {
		t.Fatalf("balance after delete = %v, want 45000", got)
	}
}

func TestRecordCollectionResolvesSingleActiveEnrollment(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}

	collection, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
		CustomerID:       customer.ID,
		Date:             time.Now(),
		AmountPaid:       100,
		BalanceRemaining: 900,
		PaymentMethod:    models.PaymentUPI,
	})
	if errRecord != nil {
		t.Fatalf("record collection: %v", errRecord)
	}
	if collection.CustomerSchemeID == nil || *collection.CustomerSchemeID != enrollment.ID {
		t.Fatalf("collection not linked to enrollment %d", enrollment.ID)
	}
	if got := enrollmentByID(t, conn, enrollment.ID).Balance; got != 900 {
		t.Fatalf("balance = %v, want 900", got)
	}
}

func TestRecordCollectionMissingCustomer(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)

	if _, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
		CustomerID: 42, Date: time.Now(), AmountPaid: 100, BalanceRemaining: 900,
	}); !errors.Is(errRecord, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", errRecord)
	}
}

func TestUpdateCollectionOverwritesBalance(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 450, Duration: 100, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	collection, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
		CustomerID:       customer.ID,
		CustomerSchemeID: &enrollment.ID,
		Date:             time.Now(),
		AmountPaid:       500,
		BalanceRemaining: 44500,
		PaymentMethod:    models.PaymentCash,
	})
	if errRecord != nil {
		t.Fatalf("record collection: %v", errRecord)
	}

	newBalance := 44000.0
	newAmount := 1000.0
	if _, errUpdate := svc.UpdateCollection(context.Background(), collection.ID, CollectionPatch{
		AmountPaid:       &newAmount,
		BalanceRemaining: &newBalance,
	}); errUpdate != nil {
		t.Fatalf("update collection: %v", errUpdate)
	}
	if got := enrollmentByID(t, conn, enrollment.ID).Balance; got != 44000 {
		t.Fatalf("balance = %v, want 44000", got)
	}
}

func TestAuctionWinnerMustBeEnrolled(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	outsider := seedCustomer(t, conn, "Outsider", "9000000099")

	if _, errRecord := svc.RecordAuction(context.Background(), AuctionInput{
		SchemeID:       scheme.ID,
		WinnerID:       &outsider.ID,
		AuctionDate:    time.Now(),
		AmountReceived: 90000,
		DiscountAmount: 10000,
	}); !errors.Is(errRecord, ErrInvalidMember) {
		t.Fatalf("err = %v, want ErrInvalidMember", errRecord)
	}
}

func TestDeleteCompletedAuctionRejected(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)

	auction, errRecord := svc.RecordAuction(context.Background(), AuctionInput{
		SchemeID:       scheme.ID,
		AuctionDate:    time.Now(),
		AmountReceived: 90000,
		DiscountAmount: 10000,
		Status:         models.AuctionCompleted,
	})
	if errRecord != nil {
		t.Fatalf("record auction: %v", errRecord)
	}

	if errDelete := svc.DeleteAuction(context.Background(), auction.ID); !errors.Is(errDelete, ErrCompleted) {
		t.Fatalf("delete err = %v, want ErrCompleted", errDelete)
	}
	var count int64
	conn.Model(&models.Auction{}).Where("id = ?", auction.ID).Count(&count)
	if count != 1 {
		t.Fatal("completed auction row was removed")
	}
}

func TestManualPassbookEntryOnePerMonth(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	in := ManualEntryInput{CustomerSchemeID: enrollment.ID, Date: date, ExpectedAmount: 100, ActualAmount: 80}
	if _, errAdd := svc.AddManualEntry(context.Background(), in); errAdd != nil {
		t.Fatalf("first manual entry: %v", errAdd)
	}

	in.Date = time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	if _, errAdd := svc.AddManualEntry(context.Background(), in); !errors.Is(errAdd, ErrDuplicateManualEntry) {
		t.Fatalf("second entry err = %v, want ErrDuplicateManualEntry", errAdd)
	}

	in.Date = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, errAdd := svc.AddManualEntry(context.Background(), in); errAdd != nil {
		t.Fatalf("next month entry: %v", errAdd)
	}
}

func TestGeneratedEntryIsReadOnly(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}

	entry, errGenerate := svc.GenerateEntry(context.Background(), enrollment.ID, time.Now())
	if errGenerate != nil {
		t.Fatalf("generate entry: %v", errGenerate)
	}

	amount := 50.0
	if _, errUpdate := svc.UpdateManualEntry(context.Background(), entry.ID, ManualEntryPatch{ActualAmount: &amount}); !errors.Is(errUpdate, ErrGeneratedEntry) {
		t.Fatalf("update err = %v, want ErrGeneratedEntry", errUpdate)
	}
	if errDelete := svc.DeleteEntry(context.Background(), entry.ID); !errors.Is(errDelete, ErrGeneratedEntry) {
		t.Fatalf("delete err = %v, want ErrGeneratedEntry", errDelete)
	}

	var count int64
	conn.Model(&models.PassbookEntry{}).Where("id = ?", entry.ID).Count(&count)
	if count != 1 {
		t.Fatal("generated entry row was removed")
	}
}

func TestGenerateEntrySumsDayCollections(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}

	day := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	for _, amount := range []float64{40, 60} {
		if _, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
			CustomerID:       customer.ID,
			CustomerSchemeID: &enrollment.ID,
			Date:             day,
			AmountPaid:       amount,
			BalanceRemaining: 1000 - amount,
			PaymentMethod:    models.PaymentCash,
		}); errRecord != nil {
			t.Fatalf("record collection: %v", errRecord)
		}
	}

	entry, errGenerate := svc.GenerateEntry(context.Background(), enrollment.ID, day)
	if errGenerate != nil {
		t.Fatalf("generate entry: %v", errGenerate)
	}
	if entry.ExpectedAmount != 100 {
		t.Fatalf("expected amount = %v, want 100", entry.ExpectedAmount)
	}
	if entry.ActualAmount != 100 {
		t.Fatalf("actual amount = %v, want 100", entry.ActualAmount)
	}
	if entry.Month != "2026-02" {
		t.Fatalf("month = %q, want 2026-02", entry.Month)
	}
}

func TestCounterNeverExceedsCapacity(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 3)

	for i := 0; i < 6; i++ {
		customer := seedCustomer(t, conn, "C", time.Now().Format("150405")+string(rune('a'+i)))
		_, _ = svc.Enroll(context.Background(), EnrollInput{
			CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
		})
	}

	loaded := schemeByID(t, conn, scheme.ID)
	if loaded.MembersEnrolled > loaded.NumberOfMembers {
		t.Fatalf("members %d exceeds capacity %d", loaded.MembersEnrolled, loaded.NumberOfMembers)
	}
}

func TestDeleteCustomerDecrementsCounters(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	scheme := seedScheme(t, conn, 5)
	customer := seedCustomer(t, conn, "Asha", "9000000001")

	enrollment, errEnroll := svc.Enroll(context.Background(), EnrollInput{
		CustomerID: customer.ID, SchemeID: scheme.ID, AmountPerDay: 100, Duration: 10, StartDate: scheme.StartDate,
	})
	if errEnroll != nil {
		t.Fatalf("enroll: %v", errEnroll)
	}
	if _, errRecord := svc.RecordCollection(context.Background(), CollectionInput{
		CustomerID:       customer.ID,
		CustomerSchemeID: &enrollment.ID,
		Date:             time.Now(),
		AmountPaid:       100,
		BalanceRemaining: 900,
		PaymentMethod:    models.PaymentCash,
	}); errRecord != nil {
		t.Fatalf("record collection: %v", errRecord)
	}

	if errDelete := svc.DeleteCustomer(context.Background(), customer.ID); errDelete != nil {
		t.Fatalf("delete customer: %v", errDelete)
	}
	if got := schemeByID(t, conn, scheme.ID).MembersEnrolled; got != 0 {
		t.Fatalf("members = %d, want 0", got)
	}
	var collections int64
	conn.Model(&models.Collection{}).Where("customer_id = ?", customer.ID).Count(&collections)
	if collections != 0 {
		t.Fatalf("collections left = %d", collections)
	}
}
