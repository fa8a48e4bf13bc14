package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/chitworks/chitfund-api/internal/cache"
	"github.com/chitworks/chitfund-api/internal/reporting"
	"github.com/gin-gonic/gin"
)

// ReportsHandler handles read-only report endpoints. Responses are cached in
// Redis when a cache is configured.
type ReportsHandler struct {
	reports *reporting.Service
	cache   *cache.ReportCache
}

// NewReportsHandler constructs a ReportsHandler.
func NewReportsHandler(reports *reporting.Service, reportCache *cache.ReportCache) *ReportsHandler {
	return &ReportsHandler{reports: reports, cache: reportCache}
}

// schemePerformanceCacheKey caches the scheme performance report; collection
// mutations drop it.
const schemePerformanceCacheKey = "reports:schemes:performance"

// revenueQuery defines query parameters for the revenue report.
type revenueQuery struct {
	GroupBy   string `form:"groupBy,default=day"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// Revenue returns time-bucketed collection totals with breakdowns.
func (h *ReportsHandler) Revenue(c *gin.Context) {
	var q revenueQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}
	if !reporting.ValidGroupBy(q.GroupBy) {
		respondError(c, http.StatusBadRequest, "groupBy must be day, week, or month")
		return
	}

	filter := reporting.RevenueFilter{GroupBy: q.GroupBy}
	if q.StartDate != "" {
		start, errParse := time.Parse(dateLayout, q.StartDate)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD")
			return
		}
		filter.From = &start
	}
	if q.EndDate != "" {
		end, errParse := time.Parse(dateLayout, q.EndDate)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid endDate, expected YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &end
	}

	key := fmt.Sprintf("reports:revenue:%s:%s:%s", q.GroupBy, q.StartDate, q.EndDate)
	var buckets []reporting.RevenueBucket
	if h.cache.Get(c.Request.Context(), key, &buckets) {
		respondOK(c, "", gin.H{"buckets": buckets})
		return
	}

	buckets, errReport := h.reports.Revenue(c.Request.Context(), filter)
	if errReport != nil {
		respondServerError(c, errReport)
		return
	}
	h.cache.Set(c.Request.Context(), key, buckets)
	respondOK(c, "", gin.H{"buckets": buckets})
}

// rangeQuery defines the optional date range shared by report endpoints.
type rangeQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// CollectorEfficiency returns per-collector paid-vs-total ratios.
func (h *ReportsHandler) CollectorEfficiency(c *gin.Context) {
	var q rangeQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		respondBindError(c, errBind)
		return
	}

	var from, to *time.Time
	if q.StartDate != "" {
		start, errParse := time.Parse(dateLayout, q.StartDate)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD")
			return
		}
		from = &start
	}
	if q.EndDate != "" {
		end, errParse := time.Parse(dateLayout, q.EndDate)
		if errParse != nil {
			respondError(c, http.StatusBadRequest, "Invalid endDate, expected YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}

	rows, errReport := h.reports.CollectorEfficiencies(c.Request.Context(), from, to)
	if errReport != nil {
		respondServerError(c, errReport)
		return
	}
	respondOK(c, "", gin.H{"collectors": rows})
}

// SchemePerformance returns per-scheme collection rates.
func (h *ReportsHandler) SchemePerformance(c *gin.Context) {
	key := schemePerformanceCacheKey
	var rows []reporting.SchemePerformance
	if h.cache.Get(c.Request.Context(), key, &rows) {
		respondOK(c, "", gin.H{"schemes": rows})
		return
	}

	rows, errReport := h.reports.SchemePerformances(c.Request.Context())
	if errReport != nil {
		respondServerError(c, errReport)
		return
	}
	h.cache.Set(c.Request.Context(), key, rows)
	respondOK(c, "", gin.H{"schemes": rows})
}

// CustomerPerformance returns one customer's progress and consistency.
func (h *ReportsHandler) CustomerPerformance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondNotFound(c, "Customer not found")
		return
	}
	perf, errReport := h.reports.CustomerPerformanceByID(c.Request.Context(), id, time.Now())
	if errReport != nil {
		respondLedgerError(c, errReport)
		return
	}
	respondOK(c, "", perf)
}

// PassbookProfit returns the daily expected-vs-actual profit report.
func (h *ReportsHandler) PassbookProfit(c *gin.Context) {
	stats, errReport := h.reports.ProfitStatistics(c.Request.Context(), time.Now())
	if errReport != nil {
		respondServerError(c, errReport)
		return
	}
	respondOK(c, "", stats)
}

// Dashboard returns headline counters and collection totals with trends.
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	summary, errReport := h.reports.Dashboard(c.Request.Context(), time.Now())
	if errReport != nil {
		respondServerError(c, errReport)
		return
	}
	respondOK(c, "", summary)
}
