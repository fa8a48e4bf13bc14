package reporting

import (
	"context"
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

func mustCreate(t *testing.T, conn *gorm.DB, value any) {
	t.Helper()
	if errCreate := conn.Create(value).Error; errCreate != nil {
		t.Fatalf("create %T: %v", value, errCreate)
	}
}

func seedEnrollment(t *testing.T, conn *gorm.DB, amountPerDay float64, duration int, start time.Time) (models.Customer, models.ChitScheme, models.CustomerScheme) {
	t.Helper()
	customer := models.Customer{Name: "Asha", Mobile: "9000000001", Active: true}
	mustCreate(t, conn, &customer)
	scheme := models.ChitScheme{
		Name:            "Daily 100",
		TotalValue:      100000,
		Duration:        duration,
		DurationType:    models.DurationDays,
		Frequency:       models.FrequencyDaily,
		AmountPerPeriod: amountPerDay,
		NumberOfMembers: 10,
		MembersEnrolled: 1,
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, duration),
		Status:          models.SchemeActive,
	}
	mustCreate(t, conn, &scheme)
	enrollment := models.CustomerScheme{
		CustomerID:   customer.ID,
		SchemeID:     scheme.ID,
		AmountPerDay: amountPerDay,
		Duration:     duration,
		StartDate:    start,
		Balance:      amountPerDay * float64(duration),
		Status:       models.EnrollmentActive,
	}
	mustCreate(t, conn, &enrollment)
	return customer, scheme, enrollment
}

func TestRevenueGroupsByDaySortedAscending(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	customer, _, enrollment := seedEnrollment(t, conn, 100, 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	dates := []time.Time{
		time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 15, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		mustCreate(t, conn, &models.Collection{
			CustomerID:       customer.ID,
			CustomerSchemeID: &enrollment.ID,
			Date:             d,
			AmountPaid:       100,
			BalanceRemaining: 900,
			PaymentMethod:    models.PaymentCash,
		})
	}

	buckets, errReport := svc.Revenue(context.Background(), RevenueFilter{GroupBy: GroupByDay})
	if errReport != nil {
		t.Fatalf("revenue: %v", errReport)
	}
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	if buckets[0].Period != "2026-01-01" || buckets[1].Period != "2026-01-03" {
		t.Fatalf("bucket order = %q, %q", buckets[0].Period, buckets[1].Period)
	}
	if buckets[1].TotalRevenue != 200 || buckets[1].TotalCollections != 2 {
		t.Fatalf("jan 3 bucket = %+v", buckets[1])
	}
	if buckets[1].ByScheme["Daily 100"] != 200 {
		t.Fatalf("scheme breakdown = %v", buckets[1].ByScheme)
	}
	if buckets[1].ByPaymentMethod[models.PaymentCash] != 200 {
		t.Fatalf("method breakdown = %v", buckets[1].ByPaymentMethod)
	}
}

func TestRevenueWeekKeyIsSundayAligned(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	customer, _, enrollment := seedEnrollment(t, conn, 100, 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	// 2026-01-07 is a Wednesday; its week starts Sunday 2026-01-04.
	mustCreate(t, conn, &models.Collection{
		CustomerID:       customer.ID,
		CustomerSchemeID: &enrollment.ID,
		Date:             time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC),
		AmountPaid:       50,
		BalanceRemaining: 950,
		PaymentMethod:    models.PaymentUPI,
	})

	buckets, errReport := svc.Revenue(context.Background(), RevenueFilter{GroupBy: GroupByWeek})
	if errReport != nil {
		t.Fatalf("revenue: %v", errReport)
	}
	if len(buckets) != 1 || buckets[0].Period != "2026-01-04" {
		t.Fatalf("week buckets = %+v", buckets)
	}
}

func TestCollectorEfficiencyCountsPaidCollections(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	customer, _, enrollment := seedEnrollment(t, conn, 100, 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	collector := models.User{Username: "ravi", Password: "x", Name: "Ravi", Role: models.RoleCollector, Active: true}
	mustCreate(t, conn, &collector)

	amounts := []float64{100, 0, 100}
	for _, amount := range amounts {
		mustCreate(t, conn, &models.Collection{
			CustomerID:       customer.ID,
			CustomerSchemeID: &enrollment.ID,
			CollectorID:      &collector.ID,
			Date:             time.Now(),
			AmountPaid:       amount,
			BalanceRemaining: 900,
			PaymentMethod:    models.PaymentCash,
		})
	}

	rows, errReport := svc.CollectorEfficiencies(context.Background(), nil, nil)
	if errReport != nil {
		t.Fatalf("collector efficiency: %v", errReport)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.TotalCollections != 3 || row.PaidCollections != 2 {
		t.Fatalf("row = %+v", row)
	}
	if row.Efficiency != 67 {
		t.Fatalf("efficiency = %d, want 67", row.Efficiency)
	}
}

func TestSchemePerformanceCollectionRate(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	_, scheme, enrollment := seedEnrollment(t, conn, 100, 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	// Contracted 1000, outstanding 250, so 75% collected.
	if errUpdate := conn.Model(&models.CustomerScheme{}).
		Where("id = ?", enrollment.ID).
		UpdateColumn("balance", 250).Error; errUpdate != nil {
		t.Fatalf("set balance: %v", errUpdate)
	}

	rows, errReport := svc.SchemePerformances(context.Background())
	if errReport != nil {
		t.Fatalf("scheme performance: %v", errReport)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.SchemeID != scheme.ID || row.TotalExpected != 1000 || row.TotalCollected != 750 {
		t.Fatalf("row = %+v", row)
	}
	if row.CollectionRate != 75 {
		t.Fatalf("collection rate = %d, want 75", row.CollectionRate)
	}
}

func TestCustomerPerformanceProgressAndConsistency(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	customer, _, enrollment := seedEnrollment(t, conn, 100, 10, start)

	if errUpdate := conn.Model(&models.CustomerScheme{}).
		Where("id = ?", enrollment.ID).
		UpdateColumn("balance", 800).Error; errUpdate != nil {
		t.Fatalf("set balance: %v", errUpdate)
	}
	// Two payments on the same day count as one payment day.
	for _, d := range []time.Time{
		time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 17, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	} {
		mustCreate(t, conn, &models.Collection{
			CustomerID:       customer.ID,
			CustomerSchemeID: &enrollment.ID,
			Date:             d,
			AmountPaid:       100,
			BalanceRemaining: 800,
			PaymentMethod:    models.PaymentCash,
		})
	}

	now := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	perf, errReport := svc.CustomerPerformanceByID(context.Background(), customer.ID, now)
	if errReport != nil {
		t.Fatalf("customer performance: %v", errReport)
	}
	if len(perf.Enrollments) != 1 {
		t.Fatalf("enrollments = %d, want 1", len(perf.Enrollments))
	}
	e := perf.Enrollments[0]
	if e.ProgressPercentage != 20 {
		t.Fatalf("progress = %d, want 20", e.ProgressPercentage)
	}
	if e.PaymentDays != 2 || e.ExpectedDays != 4 {
		t.Fatalf("days = %d/%d, want 2/4", e.PaymentDays, e.ExpectedDays)
	}
	if e.ConsistencyPercentage != 50 {
		t.Fatalf("consistency = %d, want 50", e.ConsistencyPercentage)
	}
}

func TestProfitStatisticsFallsBackToYesterday(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, _, enrollment := seedEnrollment(t, conn, 100, 30, start)

	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	mustCreate(t, conn, &models.PassbookEntry{
		CustomerSchemeID: enrollment.ID,
		Date:             time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC),
		Month:            "2026-05",
		ExpectedAmount:   100,
		ActualAmount:     60,
		Type:             models.PassbookGenerated,
	})

	stats, errReport := svc.ProfitStatistics(context.Background(), now)
	if errReport != nil {
		t.Fatalf("profit statistics: %v", errReport)
	}
	if stats.TotalExpected != 100 || stats.TotalActual != 60 {
		t.Fatalf("totals = %+v", stats)
	}
	if stats.TotalBacklog != 40 {
		t.Fatalf("backlog = %v, want 40", stats.TotalBacklog)
	}
	// Default commission 0.05, May has 31 days.
	if stats.DailyProfit != 3 {
		t.Fatalf("daily profit = %v, want 3", stats.DailyProfit)
	}
	if stats.MonthlyProfit != 93 {
		t.Fatalf("monthly profit = %v, want 93", stats.MonthlyProfit)
	}
	if len(stats.Backlog) != 1 || len(stats.Paid) != 0 || len(stats.Pending) != 0 {
		t.Fatalf("buckets = paid:%d pending:%d backlog:%d", len(stats.Paid), len(stats.Pending), len(stats.Backlog))
	}
}

func TestProfitStatisticsTodayOverridesYesterday(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, _, enrollment := seedEnrollment(t, conn, 100, 30, start)

	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	for _, entry := range []models.PassbookEntry{
		{CustomerSchemeID: enrollment.ID, Date: time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), Month: "2026-05", ExpectedAmount: 100, ActualAmount: 60, Type: models.PassbookGenerated},
		{CustomerSchemeID: enrollment.ID, Date: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), Month: "2026-05", ExpectedAmount: 100, ActualAmount: 100, Type: models.PassbookGenerated},
	} {
		e := entry
		mustCreate(t, conn, &e)
	}

	stats, errReport := svc.ProfitStatistics(context.Background(), now)
	if errReport != nil {
		t.Fatalf("profit statistics: %v", errReport)
	}
	if stats.TotalActual != 100 {
		t.Fatalf("actual = %v, want 100", stats.TotalActual)
	}
	if len(stats.Paid) != 1 {
		t.Fatalf("paid bucket = %d, want 1", len(stats.Paid))
	}
}

func TestDashboardTotalsAndTrends(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	customer, _, enrollment := seedEnrollment(t, conn, 100, 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for _, c := range []struct {
		date   time.Time
		amount float64
	}{
		{time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), 300},
		{time.Date(2026, 1, 9, 9, 0, 0, 0, time.UTC), 200},
		{time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC), 1000},
	} {
		mustCreate(t, conn, &models.Collection{
			CustomerID:       customer.ID,
			CustomerSchemeID: &enrollment.ID,
			Date:             c.date,
			AmountPaid:       c.amount,
			BalanceRemaining: 700,
			PaymentMethod:    models.PaymentCash,
		})
	}

	summary, errReport := svc.Dashboard(context.Background(), now)
	if errReport != nil {
		t.Fatalf("dashboard: %v", errReport)
	}
	if summary.ActiveSchemes != 1 || summary.ActiveCustomers != 1 || summary.ActiveEnrollments != 1 {
		t.Fatalf("counts = %+v", summary)
	}
	if summary.TodayTotal != 300 {
		t.Fatalf("today total = %v, want 300", summary.TodayTotal)
	}
	if summary.TodayTrend != 50 {
		t.Fatalf("today trend = %d, want 50", summary.TodayTrend)
	}
	if summary.MonthTotal != 500 {
		t.Fatalf("month total = %v, want 500", summary.MonthTotal)
	}
	if summary.MonthTrend != -50 {
		t.Fatalf("month trend = %d, want -50", summary.MonthTrend)
	}
}

func TestCalcTrendZeroBaseline(t *testing.T) {
	if got := calcTrend(10, 0); got != 100 {
		t.Fatalf("trend = %d, want 100", got)
	}
	if got := calcTrend(0, 0); got != 0 {
		t.Fatalf("trend = %d, want 0", got)
	}
}
