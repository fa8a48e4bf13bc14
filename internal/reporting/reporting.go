// Package reporting produces read-only derived statistics. Reports fetch rows
// and reduce in memory; none of them mutate persisted state, so they are safe
// to retry and to run concurrently with writes.
package reporting

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/chitworks/chitfund-api/internal/models"
	"github.com/chitworks/chitfund-api/internal/settings"
	"gorm.io/gorm"
)

// Service runs report queries against the database.
type Service struct {
	db *gorm.DB
}

// NewService constructs a reporting Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Revenue grouping granularities.
const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// ValidGroupBy reports whether the given granularity is supported.
func ValidGroupBy(groupBy string) bool {
	switch groupBy {
	case GroupByDay, GroupByWeek, GroupByMonth:
		return true
	}
	return false
}

// RevenueFilter bounds the revenue report.
type RevenueFilter struct {
	From    *time.Time
	To      *time.Time
	GroupBy string
}

// RevenueBucket is one time bucket of the revenue report.
type RevenueBucket struct {
	Period           string             `json:"period"`
	TotalRevenue     float64            `json:"totalRevenue"`
	TotalCollections int                `json:"totalCollections"`
	ByScheme         map[string]float64 `json:"byScheme"`
	ByPaymentMethod  map[string]float64 `json:"byPaymentMethod"`
}

// Revenue groups collections into day, week, or month buckets with per-bucket
// totals and breakdowns by scheme name and payment method. Buckets are sorted
// ascending by date key.
func (s *Service) Revenue(ctx context.Context, filter RevenueFilter) ([]RevenueBucket, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Collection{}).
		Preload("Enrollment.Scheme")
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var collections []models.Collection
	if errFind := query.Order("date ASC").Find(&collections).Error; errFind != nil {
		return nil, errFind
	}

	buckets := make(map[string]*RevenueBucket)
	for i := range collections {
		c := &collections[i]
		key := bucketKey(c.Date, filter.GroupBy)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &RevenueBucket{
				Period:          key,
				ByScheme:        map[string]float64{},
				ByPaymentMethod: map[string]float64{},
			}
			buckets[key] = bucket
		}
		bucket.TotalRevenue += c.AmountPaid
		bucket.TotalCollections++
		bucket.ByPaymentMethod[c.PaymentMethod] += c.AmountPaid
		if c.Enrollment != nil && c.Enrollment.Scheme != nil {
			bucket.ByScheme[c.Enrollment.Scheme.Name] += c.AmountPaid
		}
	}

	out := make([]RevenueBucket, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// bucketKey derives the grouping key for a collection date. Week keys are the
// Sunday-aligned start of week.
func bucketKey(date time.Time, groupBy string) string {
	switch groupBy {
	case GroupByWeek:
		start := date.AddDate(0, 0, -int(date.Weekday()))
		return start.Format("2006-01-02")
	case GroupByMonth:
		return date.Format("2006-01")
	default:
		return date.Format("2006-01-02")
	}
}

// CollectorEfficiency summarizes one collector's recorded payments. A paid
// collection is one with amountPaid > 0.
type CollectorEfficiency struct {
	CollectorID      uint64 `json:"collectorId"`
	Name             string `json:"name"`
	TotalCollections int64  `json:"totalCollections"`
	PaidCollections  int64  `json:"paidCollections"`
	Efficiency       int    `json:"efficiency"`
}

// CollectorEfficiencies computes paid-vs-total ratios per collector.
func (s *Service) CollectorEfficiencies(ctx context.Context, from, to *time.Time) ([]CollectorEfficiency, error) {
	var rows []struct {
		CollectorID uint64
		Name        string
		Total       int64
		Paid        int64
	}
	query := s.db.WithContext(ctx).
		Model(&models.Collection{}).
		Select("collections.collector_id AS collector_id, users.name AS name, COUNT(*) AS total, SUM(CASE WHEN collections.amount_paid > 0 THEN 1 ELSE 0 END) AS paid").
		Joins("JOIN users ON users.id = collections.collector_id").
		Where("collections.collector_id IS NOT NULL")
	if from != nil {
		query = query.Where("collections.date >= ?", *from)
	}
	if to != nil {
		query = query.Where("collections.date <= ?", *to)
	}
	if errScan := query.
		Group("collections.collector_id, users.name").
		Order("collections.collector_id ASC").
		Scan(&rows).Error; errScan != nil {
		return nil, errScan
	}

	out := make([]CollectorEfficiency, 0, len(rows))
	for _, row := range rows {
		out = append(out, CollectorEfficiency{
			CollectorID:      row.CollectorID,
			Name:             row.Name,
			TotalCollections: row.Total,
			PaidCollections:  row.Paid,
			Efficiency:       roundPct(float64(row.Paid), float64(row.Total)),
		})
	}
	return out, nil
}

// SchemePerformance summarizes collection progress for one scheme.
type SchemePerformance struct {
	SchemeID        uint64  `json:"schemeId"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	MembersEnrolled int     `json:"membersEnrolled"`
	TotalExpected   float64 `json:"totalExpected"`
	TotalCollected  float64 `json:"totalCollected"`
	CollectionRate  int     `json:"collectionRate"`
}

// SchemePerformances computes per-scheme collection rates. Expected is the sum
// of contracted amounts over enrollments; collected is expected minus the
// outstanding balances.
func (s *Service) SchemePerformances(ctx context.Context) ([]SchemePerformance, error) {
	var rows []struct {
		SchemeID uint64
		Name     string
		Status   string
		Members  int
		Expected float64
		Balance  float64
	}
	if errScan := s.db.WithContext(ctx).
		Model(&models.ChitScheme{}).
		Select("chit_schemes.id AS scheme_id, chit_schemes.name AS name, chit_schemes.status AS status, chit_schemes.members_enrolled AS members, COALESCE(SUM(customer_schemes.amount_per_day * customer_schemes.duration), 0) AS expected, COALESCE(SUM(customer_schemes.balance), 0) AS balance").
		Joins("LEFT JOIN customer_schemes ON customer_schemes.scheme_id = chit_schemes.id").
		Group("chit_schemes.id, chit_schemes.name, chit_schemes.status, chit_schemes.members_enrolled").
		Order("chit_schemes.id ASC").
		Scan(&rows).Error; errScan != nil {
		return nil, errScan
	}

	out := make([]SchemePerformance, 0, len(rows))
	for _, row := range rows {
		collected := row.Expected - row.Balance
		out = append(out, SchemePerformance{
			SchemeID:        row.SchemeID,
			Name:            row.Name,
			Status:          row.Status,
			MembersEnrolled: row.Members,
			TotalExpected:   row.Expected,
			TotalCollected:  collected,
			CollectionRate:  roundPct(collected, row.Expected),
		})
	}
	return out, nil
}

// EnrollmentPerformance summarizes one enrollment of a customer.
type EnrollmentPerformance struct {
	EnrollmentID          uint64  `json:"enrollmentId"`
	SchemeName            string  `json:"schemeName"`
	Status                string  `json:"status"`
	ContractedAmount      float64 `json:"contractedAmount"`
	CollectedAmount       float64 `json:"collectedAmount"`
	Balance               float64 `json:"balance"`
	ProgressPercentage    int     `json:"progressPercentage"`
	PaymentDays           int     `json:"paymentDays"`
	ExpectedDays          int     `json:"expectedDays"`
	ConsistencyPercentage int     `json:"consistencyPercentage"`
}

// CustomerPerformance summarizes a customer across their enrollments.
type CustomerPerformance struct {
	CustomerID  uint64                  `json:"customerId"`
	Name        string                  `json:"name"`
	Enrollments []EnrollmentPerformance `json:"enrollments"`
}

// CustomerPerformanceByID computes progress and consistency per enrollment.
// Consistency divides distinct payment days by the days elapsed since the
// enrollment started.
func (s *Service) CustomerPerformanceByID(ctx context.Context, customerID uint64, now time.Time) (*CustomerPerformance, error) {
	var customer models.Customer
	if errFind := s.db.WithContext(ctx).First(&customer, customerID).Error; errFind != nil {
		return nil, errFind
	}

	var enrollments []models.CustomerScheme
	if errFind := s.db.WithContext(ctx).
		Preload("Scheme").
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&enrollments).Error; errFind != nil {
		return nil, errFind
	}

	out := CustomerPerformance{
		CustomerID:  customer.ID,
		Name:        customer.Name,
		Enrollments: make([]EnrollmentPerformance, 0, len(enrollments)),
	}
	for i := range enrollments {
		e := &enrollments[i]

		var collections []models.Collection
		if errFind := s.db.WithContext(ctx).
			Select("date").
			Where("customer_scheme_id = ?", e.ID).
			Find(&collections).Error; errFind != nil {
			return nil, errFind
		}
		days := map[string]struct{}{}
		for _, c := range collections {
			days[c.Date.Format("2006-01-02")] = struct{}{}
		}

		contracted := e.ContractedAmount()
		collected := contracted - e.Balance
		expectedDays := int(math.Ceil(now.Sub(e.StartDate).Hours() / 24))
		if expectedDays < 1 {
			expectedDays = 1
		}

		perf := EnrollmentPerformance{
			EnrollmentID:          e.ID,
			Status:                e.Status,
			ContractedAmount:      contracted,
			CollectedAmount:       collected,
			Balance:               e.Balance,
			ProgressPercentage:    roundPct(collected, contracted),
			PaymentDays:           len(days),
			ExpectedDays:          expectedDays,
			ConsistencyPercentage: roundPct(float64(len(days)), float64(expectedDays)),
		}
		if e.Scheme != nil {
			perf.SchemeName = e.Scheme.Name
		}
		out.Enrollments = append(out.Enrollments, perf)
	}
	return &out, nil
}

// ProfitLine is one active enrollment's expected vs actual standing for the day.
type ProfitLine struct {
	EnrollmentID  uint64  `json:"enrollmentId"`
	CustomerName  string  `json:"customerName"`
	SchemeName    string  `json:"schemeName"`
	ExpectedDaily float64 `json:"expectedDaily"`
	ActualDaily   float64 `json:"actualDaily"`
	Backlog       float64 `json:"backlog"`
}

// ProfitStats is the passbook profit report for the current day.
type ProfitStats struct {
	Date          string       `json:"date"`
	TotalExpected float64      `json:"totalExpected"`
	TotalActual   float64      `json:"totalActual"`
	TotalBacklog  float64      `json:"totalBacklog"`
	DailyProfit   float64      `json:"dailyProfit"`
	MonthlyProfit float64      `json:"monthlyProfit"`
	Paid          []ProfitLine `json:"paid"`
	Pending       []ProfitLine `json:"pending"`
	Backlog       []ProfitLine `json:"backlog"`
}

// ProfitStatistics compares expected against actual passbook amounts for each
// active enrollment. Today's entry wins; yesterday's is used as a fallback to
// absorb timezone skew. Profit applies the scheme commission rate, or the
// configured default when the scheme has none.
func (s *Service) ProfitStatistics(ctx context.Context, now time.Time) (*ProfitStats, error) {
	var enrollments []models.CustomerScheme
	if errFind := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Scheme").
		Where("status = ?", models.EnrollmentActive).
		Order("id ASC").
		Find(&enrollments).Error; errFind != nil {
		return nil, errFind
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	ids := make([]uint64, 0, len(enrollments))
	for i := range enrollments {
		ids = append(ids, enrollments[i].ID)
	}
	actuals := map[uint64]float64{}
	if len(ids) > 0 {
		var entries []models.PassbookEntry
		if errFind := s.db.WithContext(ctx).
			Where("customer_scheme_id IN ? AND date >= ? AND date < ?", ids, yesterday, tomorrow).
			Order("date ASC").
			Find(&entries).Error; errFind != nil {
			return nil, errFind
		}
		// Ascending order means a today entry overwrites yesterday's fallback.
		for _, entry := range entries {
			actuals[entry.CustomerSchemeID] = entry.ActualAmount
		}
	}

	defaultRate := settings.DefaultCommissionRate()
	stats := ProfitStats{
		Date:    today.Format("2006-01-02"),
		Paid:    []ProfitLine{},
		Pending: []ProfitLine{},
		Backlog: []ProfitLine{},
	}
	for i := range enrollments {
		e := &enrollments[i]
		expected := e.AmountPerDay
		actual := actuals[e.ID]

		line := ProfitLine{
			EnrollmentID:  e.ID,
			ExpectedDaily: expected,
			ActualDaily:   actual,
		}
		if e.Customer != nil {
			line.CustomerName = e.Customer.Name
		}
		if e.Scheme != nil {
			line.SchemeName = e.Scheme.Name
		}
		if shortfall := expected - actual; shortfall > 0 {
			line.Backlog = shortfall
		}

		rate := defaultRate
		if e.Scheme != nil && e.Scheme.CommissionRate != nil {
			rate = *e.Scheme.CommissionRate
		}

		stats.TotalExpected += expected
		stats.TotalActual += actual
		stats.TotalBacklog += line.Backlog
		stats.DailyProfit += actual * rate

		switch {
		case actual >= expected && actual > 0:
			stats.Paid = append(stats.Paid, line)
		case actual > 0:
			stats.Backlog = append(stats.Backlog, line)
		default:
			stats.Pending = append(stats.Pending, line)
		}
	}

	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	stats.MonthlyProfit = stats.DailyProfit * float64(daysInMonth)
	return &stats, nil
}

// DashboardSummary holds the headline counters and collection totals.
type DashboardSummary struct {
	ActiveSchemes     int64   `json:"activeSchemes"`
	ActiveCustomers   int64   `json:"activeCustomers"`
	ActiveEnrollments int64   `json:"activeEnrollments"`
	TodayTotal        float64 `json:"todayTotal"`
	TodayTrend        int     `json:"todayTrend"`
	MonthTotal        float64 `json:"monthTotal"`
	MonthTrend        int     `json:"monthTrend"`
}

// Dashboard computes entity counts plus today's and month-to-date collection
// totals, each with a trend against the preceding period.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*DashboardSummary, error) {
	db := s.db.WithContext(ctx)
	var summary DashboardSummary

	if errCount := db.Model(&models.ChitScheme{}).
		Where("status = ?", models.SchemeActive).
		Count(&summary.ActiveSchemes).Error; errCount != nil {
		return nil, errCount
	}
	if errCount := db.Model(&models.Customer{}).
		Where("active = ?", true).
		Count(&summary.ActiveCustomers).Error; errCount != nil {
		return nil, errCount
	}
	if errCount := db.Model(&models.CustomerScheme{}).
		Where("status = ?", models.EnrollmentActive).
		Count(&summary.ActiveEnrollments).Error; errCount != nil {
		return nil, errCount
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	todayTotal, errSum := s.sumCollections(ctx, today, tomorrow)
	if errSum != nil {
		return nil, errSum
	}
	yesterdayTotal, errSum := s.sumCollections(ctx, yesterday, today)
	if errSum != nil {
		return nil, errSum
	}
	monthTotal, errSum := s.sumCollections(ctx, monthStart, tomorrow)
	if errSum != nil {
		return nil, errSum
	}
	prevMonthTotal, errSum := s.sumCollections(ctx, prevMonthStart, monthStart)
	if errSum != nil {
		return nil, errSum
	}

	summary.TodayTotal = todayTotal
	summary.TodayTrend = calcTrend(todayTotal, yesterdayTotal)
	summary.MonthTotal = monthTotal
	summary.MonthTrend = calcTrend(monthTotal, prevMonthTotal)
	return &summary, nil
}

func (s *Service) sumCollections(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	errSum := s.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("date >= ? AND date < ?", from, to).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&total).Error
	return total, errSum
}

// calcTrend returns the percentage change from previous to current, rounded.
// A zero baseline yields 100 when the current value is positive.
func calcTrend(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// roundPct returns part/whole as a rounded percentage, 0 when whole is 0.
func roundPct(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}
