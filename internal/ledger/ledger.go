// Package ledger keeps enrollment balances and scheme member counters
// consistent with recorded collections, auctions, and passbook entries.
// Every multi-row mutation runs in a single transaction with a row lock on
// the balance or counter being changed.
package ledger

import (
	"context"
	"errors"
	"time"

	dbutil "github.com/chitworks/chitfund-api/internal/db"
	"github.com/chitworks/chitfund-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service applies ledger mutations against the database.
type Service struct {
	db *gorm.DB
}

// NewService constructs a ledger Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// lockForUpdate adds a row-level lock where the dialect supports it.
// SQLite serializes writers at the connection level, so no clause is needed.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if dbutil.IsSQLite(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// EnrollInput holds the parameters for enrolling a customer in a scheme.
type EnrollInput struct {
	CustomerID   uint64
	SchemeID     uint64
	AmountPerDay float64
	Duration     int
	StartDate    time.Time
}

// Enroll creates a CustomerScheme row and increments the scheme's enrollment
// counter in one transaction. The opening balance is the full contracted
// amount (amountPerDay x duration).
func (s *Service) Enroll(ctx context.Context, in EnrollInput) (*models.CustomerScheme, error) {
	var enrollment models.CustomerScheme
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scheme models.ChitScheme
		if errFind := lockForUpdate(tx).First(&scheme, in.SchemeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		var customer models.Customer
		if errFind := tx.First(&customer, in.CustomerID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		if !scheme.HasCapacity() {
			return ErrCapacityExceeded
		}

		var existing int64
		if errCount := tx.Model(&models.CustomerScheme{}).
			Where("customer_id = ? AND scheme_id = ?", in.CustomerID, in.SchemeID).
			Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			return ErrAlreadyEnrolled
		}

		enrollment = models.CustomerScheme{
			CustomerID:   in.CustomerID,
			SchemeID:     in.SchemeID,
			AmountPerDay: in.AmountPerDay,
			Duration:     in.Duration,
			StartDate:    in.StartDate,
			Balance:      in.AmountPerDay * float64(in.Duration),
			Status:       models.EnrollmentActive,
		}
		if errCreate := tx.Create(&enrollment).Error; errCreate != nil {
			return errCreate
		}

		return tx.Model(&models.ChitScheme{}).
			Where("id = ?", in.SchemeID).
			UpdateColumn("members_enrolled", gorm.Expr("members_enrolled + 1")).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &enrollment, nil
}

// Unenroll deletes an enrollment and decrements the scheme counter. It fails
// when the enrollment is completed or when collections or passbook entries
// still reference it.
func (s *Service) Unenroll(ctx context.Context, enrollmentID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.CustomerScheme
		if errFind := lockForUpdate(tx).First(&enrollment, enrollmentID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if enrollment.Status == models.EnrollmentCompleted {
			return ErrCompleted
		}

		var collections int64
		if errCount := tx.Model(&models.Collection{}).
			Where("customer_scheme_id = ?", enrollmentID).
			Count(&collections).Error; errCount != nil {
			return errCount
		}
		var entries int64
		if errCount := tx.Model(&models.PassbookEntry{}).
			Where("customer_scheme_id = ?", enrollmentID).
			Count(&entries).Error; errCount != nil {
			return errCount
		}
		if collections > 0 || entries > 0 {
			return ErrHasDependents
		}

		if errDelete := tx.Delete(&enrollment).Error; errDelete != nil {
			return errDelete
		}
		return tx.Model(&models.ChitScheme{}).
			Where("id = ? AND members_enrolled > 0", enrollment.SchemeID).
			UpdateColumn("members_enrolled", gorm.Expr("members_enrolled - 1")).Error
	})
}

// CollectionInput holds the parameters for recording a payment.
type CollectionInput struct {
	CustomerID       uint64
	CustomerSchemeID *uint64
	CollectorID      *uint64
	Date             time.Time
	AmountPaid       float64
	BalanceRemaining float64
	PaymentMethod    string
	Remarks          string
}

// RecordCollection creates a Collection row and overwrites the owning
// enrollment's balance with the caller-supplied remaining balance. When no
// enrollment is given, the customer's single active enrollment is used.
func (s *Service) RecordCollection(ctx context.Context, in CollectionInput) (*models.Collection, error) {
	var collection models.Collection
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if errFind := tx.First(&customer, in.CustomerID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		enrollment, errResolve := resolveEnrollment(tx, in.CustomerID, in.CustomerSchemeID)
		if errResolve != nil {
			return errResolve
		}

		collection = models.Collection{
			CustomerID:       in.CustomerID,
			CustomerSchemeID: &enrollment.ID,
			CollectorID:      in.CollectorID,
			Date:             in.Date,
			AmountPaid:       in.AmountPaid,
			BalanceRemaining: in.BalanceRemaining,
			PaymentMethod:    in.PaymentMethod,
			Remarks:          in.Remarks,
		}
		if errCreate := tx.Create(&collection).Error; errCreate != nil {
			return errCreate
		}

		return tx.Model(&models.CustomerScheme{}).
			Where("id = ?", enrollment.ID).
			UpdateColumn("balance", in.BalanceRemaining).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &collection, nil
}

// CollectionPatch holds the updatable fields of a collection. Nil fields are
// left unchanged.
type CollectionPatch struct {
	Date             *time.Time
	AmountPaid       *float64
	BalanceRemaining *float64
	PaymentMethod    *string
	Remarks          *string
	CollectorID      *uint64
}

// UpdateCollection patches a collection. When the patch carries a remaining
// balance, the enrollment balance is overwritten with the new value.
func (s *Service) UpdateCollection(ctx context.Context, id uint64, patch CollectionPatch) (*models.Collection, error) {
	var collection models.Collection
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := lockForUpdate(tx).First(&collection, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		updates := map[string]any{}
		if patch.Date != nil {
			updates["date"] = *patch.Date
		}
		if patch.AmountPaid != nil {
			updates["amount_paid"] = *patch.AmountPaid
		}
		if patch.BalanceRemaining != nil {
			updates["balance_remaining"] = *patch.BalanceRemaining
		}
		if patch.PaymentMethod != nil {
			updates["payment_method"] = *patch.PaymentMethod
		}
		if patch.Remarks != nil {
			updates["remarks"] = *patch.Remarks
		}
		if patch.CollectorID != nil {
			updates["collector_id"] = *patch.CollectorID
		}
		if len(updates) == 0 {
			return nil
		}
		if errUpdate := tx.Model(&collection).Updates(updates).Error; errUpdate != nil {
			return errUpdate
		}

		if patch.BalanceRemaining != nil && collection.CustomerSchemeID != nil {
			if errBalance := tx.Model(&models.CustomerScheme{}).
				Where("id = ?", *collection.CustomerSchemeID).
				UpdateColumn("balance", *patch.BalanceRemaining).Error; errBalance != nil {
				return errBalance
			}
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &collection, nil
}

// DeleteCollection removes a collection and restores the enrollment balance
// by adding the deleted amount back to the current balance.
func (s *Service) DeleteCollection(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var collection models.Collection
		if errFind := lockForUpdate(tx).First(&collection, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		if errDelete := tx.Delete(&collection).Error; errDelete != nil {
			return errDelete
		}

		if collection.CustomerSchemeID != nil {
			return tx.Model(&models.CustomerScheme{}).
				Where("id = ?", *collection.CustomerSchemeID).
				UpdateColumn("balance", gorm.Expr("balance + ?", collection.AmountPaid)).Error
		}
		return nil
	})
}

// AuctionInput holds the parameters for recording a lifting event.
type AuctionInput struct {
	SchemeID             uint64
	WinnerID             *uint64
	AuctionDate          time.Time
	AmountReceived       float64
	DiscountAmount       float64
	NewDailyPayment      float64
	PreviousDailyPayment float64
	Status               string
	Remarks              string
}

// RecordAuction creates an auction for a scheme. The winner, when given, must
// be enrolled in the scheme. Enrollment balances are not touched; the payment
// change is informational.
func (s *Service) RecordAuction(ctx context.Context, in AuctionInput) (*models.Auction, error) {
	var auction models.Auction
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scheme models.ChitScheme
		if errFind := tx.First(&scheme, in.SchemeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		if in.WinnerID != nil {
			var enrolled int64
			if errCount := tx.Model(&models.CustomerScheme{}).
				Where("customer_id = ? AND scheme_id = ?", *in.WinnerID, in.SchemeID).
				Count(&enrolled).Error; errCount != nil {
				return errCount
			}
			if enrolled == 0 {
				return ErrInvalidMember
			}
		}

		status := in.Status
		if status == "" {
			status = models.AuctionScheduled
		}
		auction = models.Auction{
			SchemeID:             in.SchemeID,
			WinnerID:             in.WinnerID,
			AuctionDate:          in.AuctionDate,
			AmountReceived:       in.AmountReceived,
			DiscountAmount:       in.DiscountAmount,
			NewDailyPayment:      in.NewDailyPayment,
			PreviousDailyPayment: in.PreviousDailyPayment,
			Status:               status,
			Remarks:              in.Remarks,
		}
		return tx.Create(&auction).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &auction, nil
}

// DeleteAuction removes an auction unless it has completed.
func (s *Service) DeleteAuction(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if errFind := tx.First(&auction, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if auction.Status == models.AuctionCompleted {
			return ErrCompleted
		}
		return tx.Delete(&auction).Error
	})
}

// ManualEntryInput holds the parameters for a manual passbook entry.
type ManualEntryInput struct {
	CustomerSchemeID uint64
	Date             time.Time
	ExpectedAmount   float64
	ActualAmount     float64
	Note             string
}

// AddManualEntry creates a MANUAL passbook entry. At most one manual entry
// may exist per enrollment per month.
func (s *Service) AddManualEntry(ctx context.Context, in ManualEntryInput) (*models.PassbookEntry, error) {
	var entry models.PassbookEntry
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.CustomerScheme
		if errFind := tx.First(&enrollment, in.CustomerSchemeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		month := in.Date.Format("2006-01")
		var existing int64
		if errCount := tx.Model(&models.PassbookEntry{}).
			Where("customer_scheme_id = ? AND month = ? AND type = ?", in.CustomerSchemeID, month, models.PassbookManual).
			Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			return ErrDuplicateManualEntry
		}

		entry = models.PassbookEntry{
			CustomerSchemeID: in.CustomerSchemeID,
			Date:             in.Date,
			Month:            month,
			ExpectedAmount:   in.ExpectedAmount,
			ActualAmount:     in.ActualAmount,
			Type:             models.PassbookManual,
			Note:             in.Note,
		}
		return tx.Create(&entry).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &entry, nil
}

// GenerateEntry creates a GENERATED passbook entry for an enrollment on the
// given date. Expected is the enrollment's per-period amount; actual is the
// sum of collections recorded for that date.
func (s *Service) GenerateEntry(ctx context.Context, enrollmentID uint64, date time.Time) (*models.PassbookEntry, error) {
	var entry models.PassbookEntry
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.CustomerScheme
		if errFind := tx.First(&enrollment, enrollmentID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)
		var actual float64
		if errSum := tx.Model(&models.Collection{}).
			Where("customer_scheme_id = ? AND date >= ? AND date < ?", enrollmentID, dayStart, dayEnd).
			Select("COALESCE(SUM(amount_paid), 0)").
			Scan(&actual).Error; errSum != nil {
			return errSum
		}

		entry = models.PassbookEntry{
			CustomerSchemeID: enrollmentID,
			Date:             dayStart,
			Month:            dayStart.Format("2006-01"),
			ExpectedAmount:   enrollment.AmountPerDay,
			ActualAmount:     actual,
			Type:             models.PassbookGenerated,
		}
		return tx.Create(&entry).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &entry, nil
}

// ManualEntryPatch holds the updatable fields of a manual passbook entry.
type ManualEntryPatch struct {
	ExpectedAmount *float64
	ActualAmount   *float64
	Note           *string
}

// UpdateManualEntry patches a MANUAL passbook entry. GENERATED entries are
// read-only.
func (s *Service) UpdateManualEntry(ctx context.Context, id uint64, patch ManualEntryPatch) (*models.PassbookEntry, error) {
	var entry models.PassbookEntry
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&entry, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if entry.Type == models.PassbookGenerated {
			return ErrGeneratedEntry
		}

		updates := map[string]any{}
		if patch.ExpectedAmount != nil {
			updates["expected_amount"] = *patch.ExpectedAmount
		}
		if patch.ActualAmount != nil {
			updates["actual_amount"] = *patch.ActualAmount
		}
		if patch.Note != nil {
			updates["note"] = *patch.Note
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&entry).Updates(updates).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &entry, nil
}

// DeleteEntry removes a MANUAL passbook entry. GENERATED entries are read-only.
func (s *Service) DeleteEntry(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.PassbookEntry
		if errFind := tx.First(&entry, id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}
		if entry.Type == models.PassbookGenerated {
			return ErrGeneratedEntry
		}
		return tx.Delete(&entry).Error
	})
}

// DeleteScheme removes a scheme with its enrollments, passbook entries, and
// auctions in one transaction.
func (s *Service) DeleteScheme(ctx context.Context, schemeID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scheme models.ChitScheme
		if errFind := lockForUpdate(tx).First(&scheme, schemeID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		var enrollmentIDs []uint64
		if errPluck := tx.Model(&models.CustomerScheme{}).
			Where("scheme_id = ?", schemeID).
			Pluck("id", &enrollmentIDs).Error; errPluck != nil {
			return errPluck
		}
		if len(enrollmentIDs) > 0 {
			if errDelete := tx.Where("customer_scheme_id IN ?", enrollmentIDs).
				Delete(&models.PassbookEntry{}).Error; errDelete != nil {
				return errDelete
			}
			if errDelete := tx.Where("customer_scheme_id IN ?", enrollmentIDs).
				Delete(&models.Collection{}).Error; errDelete != nil {
				return errDelete
			}
			if errDelete := tx.Where("scheme_id = ?", schemeID).
				Delete(&models.CustomerScheme{}).Error; errDelete != nil {
				return errDelete
			}
		}
		if errDelete := tx.Where("scheme_id = ?", schemeID).
			Delete(&models.Auction{}).Error; errDelete != nil {
			return errDelete
		}
		return tx.Delete(&scheme).Error
	})
}

// DeleteCustomer removes a customer with their collections, enrollments, and
// passbook entries, decrementing each affected scheme's counter.
func (s *Service) DeleteCustomer(ctx context.Context, customerID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if errFind := tx.First(&customer, customerID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		var enrollments []models.CustomerScheme
		if errFindAll := tx.Where("customer_id = ?", customerID).
			Find(&enrollments).Error; errFindAll != nil {
			return errFindAll
		}

		if errDelete := tx.Where("customer_id = ?", customerID).
			Delete(&models.Collection{}).Error; errDelete != nil {
			return errDelete
		}
		for _, enrollment := range enrollments {
			if errDelete := tx.Where("customer_scheme_id = ?", enrollment.ID).
				Delete(&models.PassbookEntry{}).Error; errDelete != nil {
				return errDelete
			}
			if errDelete := tx.Delete(&models.CustomerScheme{}, enrollment.ID).Error; errDelete != nil {
				return errDelete
			}
			if errCounter := tx.Model(&models.ChitScheme{}).
				Where("id = ? AND members_enrolled > 0", enrollment.SchemeID).
				UpdateColumn("members_enrolled", gorm.Expr("members_enrolled - 1")).Error; errCounter != nil {
				return errCounter
			}
		}
		return tx.Delete(&customer).Error
	})
}

// resolveEnrollment locates the enrollment a collection applies to. An
// explicit ID wins; otherwise the customer must have exactly one active
// enrollment.
func resolveEnrollment(tx *gorm.DB, customerID uint64, enrollmentID *uint64) (*models.CustomerScheme, error) {
	if enrollmentID != nil {
		var enrollment models.CustomerScheme
		if errFind := lockForUpdate(tx).
			Where("id = ? AND customer_id = ?", *enrollmentID, customerID).
			First(&enrollment).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, errFind
		}
		return &enrollment, nil
	}

	var enrollments []models.CustomerScheme
	if errFind := lockForUpdate(tx).
		Where("customer_id = ? AND status = ?", customerID, models.EnrollmentActive).
		Find(&enrollments).Error; errFind != nil {
		return nil, errFind
	}
	switch len(enrollments) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &enrollments[0], nil
	default:
		return nil, ErrAmbiguousEnrollment
	}
}
