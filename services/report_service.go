package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
	"gorm.io/gorm"
)

// Report ranges
const (
	RangeDaily   = "daily"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
	RangeYearly  = "yearly"
	RangeCustom  = "custom"
)

const (
	granularityDay   = "day"
	granularityMonth = "month"

	dashboardCacheKey = "reports:dashboard"
	dashboardTopN     = 10
	reportRollupLimit = 50
	maxCustomRange    = 366 * 24 * time.Hour
)

// Orders that count as sales: not cancelled, and either paid or cash on delivery
const salesScope = "orders.order_status <> 'Cancelled' AND (orders.is_paid = true OR orders.payment_method = 'COD')"

type DashboardTotals struct {
	Orders         int64           `json:"orders"`
	Revenue        decimal.Decimal `json:"revenue"`
	Customers      int64           `json:"customers"`
	Products       int64           `json:"products"`
	PendingReturns int64           `json:"pendingReturns"`
}

// RankedItem is one row of a best seller list
type RankedItem struct {
	ID       uint            `json:"id,omitempty"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	Totals        DashboardTotals  `json:"totals"`
	TopProducts   []RankedItem     `json:"topProducts"`
	TopCategories []RankedItem     `json:"topCategories"`
	TopBrands     []RankedItem     `json:"topBrands"`
	Monthly       []MonthlyRevenue `json:"monthlyRevenue"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// SalesReportFilter selects the reporting window. Dates are YYYY-MM-DD and
// only read for the custom range.
type SalesReportFilter struct {
	Range     string `form:"range"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type SalesSummary struct {
	Orders            int64           `json:"orders"`
	Items             int64           `json:"items"`
	Customers         int64           `json:"customers"`
	CancelledOrders   int64           `json:"cancelledOrders"`
	Gross             decimal.Decimal `json:"gross"`
	OfferDiscount     decimal.Decimal `json:"offerDiscount"`
	CouponDiscount    decimal.Decimal `json:"couponDiscount"`
	Shipping          decimal.Decimal `json:"shipping"`
	Tax               decimal.Decimal `json:"tax"`
	Refunds           decimal.Decimal `json:"refunds"`
	Net               decimal.Decimal `json:"net"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// SalesBucket is one day or month of sales
type SalesBucket struct {
	Period         string          `json:"period"`
	Orders         int64           `json:"orders"`
	Items          int64           `json:"items"`
	Gross          decimal.Decimal `json:"gross"`
	OfferDiscount  decimal.Decimal `json:"offerDiscount"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	Refunds        decimal.Decimal `json:"refunds"`
	Net            decimal.Decimal `json:"net"`
}

type PaymentBreakdown struct {
	Method string          `json:"method"`
	Orders int64           `json:"orders"`
	Amount decimal.Decimal `json:"amount"`
}

type SalesReport struct {
	Range       string             `json:"range"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Granularity string             `json:"granularity"`
	Summary     SalesSummary       `json:"summary"`
	Buckets     []SalesBucket      `json:"buckets"`
	Payments    []PaymentBreakdown `json:"payments"`
	Categories  []RankedItem       `json:"categories"`
	Brands      []RankedItem       `json:"brands"`
	Products    []RankedItem       `json:"products"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// FileName is the download name for the report in the given extension
func (r *SalesReport) FileName(ext string) string {
	// End is exclusive
	last := r.End.Add(-time.Nanosecond)
	return fmt.Sprintf("sales-report-%s-%s.%s", r.Start.Format("2006-01-02"), last.Format("2006-01-02"), ext)
}

type ReportServiceImpl struct {
	db    *gorm.DB
	cache *ReportCache
}

func NewReportService(db *gorm.DB, cache *ReportCache) *ReportServiceImpl {
	return &ReportServiceImpl{db: db, cache: cache}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveRange turns a filter into a half-open UTC window [start, end) and
// the bucket size used for it
func ResolveRange(filter SalesReportFilter, now time.Time) (time.Time, time.Time, string, error) {
	now = now.UTC()
	tomorrow := startOfDay(now).AddDate(0, 0, 1)

	switch strings.ToLower(filter.Range) {
	case "", RangeDaily:
		return tomorrow.AddDate(0, 0, -1), tomorrow, granularityDay, nil
	case RangeWeekly:
		return tomorrow.AddDate(0, 0, -7), tomorrow, granularityDay, nil
	case RangeMonthly:
		return tomorrow.AddDate(0, 0, -30), tomorrow, granularityDay, nil
	case RangeYearly:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return firstOfMonth.AddDate(0, -11, 0), tomorrow, granularityMonth, nil
	case RangeCustom:
		if filter.StartDate == "" || filter.EndDate == "" {
			return time.Time{}, time.Time{}, "", utils.BadRequestError("start_date and end_date are required for a custom range", nil).
				WithType(utils.ErrTypeValidation)
		}
		start, err := time.Parse("2006-01-02", filter.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, "", utils.BadRequestError("start_date must be in YYYY-MM-DD format", err).
				WithType(utils.ErrTypeValidation)
		}
		end, err := time.Parse("2006-01-02", filter.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, "", utils.BadRequestError("end_date must be in YYYY-MM-DD format", err).
				WithType(utils.ErrTypeValidation)
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, "", utils.BadRequestError("end_date must not be before start_date", nil).
				WithType(utils.ErrTypeValidation)
		}
		end = end.AddDate(0, 0, 1)
		if end.Sub(start) > maxCustomRange {
			return time.Time{}, time.Time{}, "", utils.BadRequestError("A custom range cannot exceed one year", nil).
				WithType(utils.ErrTypeValidation)
		}
		granularity := granularityDay
		if end.Sub(start) > 92*24*time.Hour {
			granularity = granularityMonth
		}
		return start, end, granularity, nil
	}
	return time.Time{}, time.Time{}, "", utils.BadRequestError("range must be daily, weekly, monthly, yearly or custom", nil).
		WithType(utils.ErrTypeValidation)
}

// bucketExpr formats orders.created_at as a UTC day or month label
func bucketExpr(granularity string) string {
	if granularity == granularityMonth {
		return "TO_CHAR(DATE_TRUNC('month', orders.created_at AT TIME ZONE 'UTC'), 'YYYY-MM')"
	}
	return "TO_CHAR(DATE_TRUNC('day', orders.created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD')"
}

// soldItems selects active lines of orders that count as sales
func soldItems(db *gorm.DB) *gorm.DB {
	return db.Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where(salesScope).
		Where("order_items.status = ?", models.ItemStatusActive)
}

func topProducts(q *gorm.DB, limit int) ([]RankedItem, error) {
	rows := []RankedItem{}
	err := q.Select("order_items.product_id AS id, MAX(order_items.name) AS name, " +
		"SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
		Group("order_items.product_id").
		Order("quantity DESC, revenue DESC").Limit(limit).Scan(&rows).Error
	return rows, errors.Wrap(err, "rank products")
}

func topCategories(q *gorm.DB, limit int) ([]RankedItem, error) {
	rows := []RankedItem{}
	err := q.Joins("LEFT JOIN categories ON categories.id = order_items.category_id").
		Select("order_items.category_id AS id, COALESCE(MAX(categories.name), 'Uncategorised') AS name, " +
			"SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
		Group("order_items.category_id").
		Order("quantity DESC, revenue DESC").Limit(limit).Scan(&rows).Error
	return rows, errors.Wrap(err, "rank categories")
}

func topBrands(q *gorm.DB, limit int) ([]RankedItem, error) {
	rows := []RankedItem{}
	err := q.Select("COALESCE(NULLIF(order_items.brand, ''), 'Unbranded') AS name, " +
		"SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
		Group("COALESCE(NULLIF(order_items.brand, ''), 'Unbranded')").
		Order("quantity DESC, revenue DESC").Limit(limit).Scan(&rows).Error
	return rows, errors.Wrap(err, "rank brands")
}

// Dashboard summarises the whole store. It is served from the report cache
// when one is configured.
func (s *ReportServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	var cached Dashboard
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		utils.LogDebug("Dashboard served from cache")
		return &cached, nil
	}

	db := s.db.WithContext(ctx)
	now := time.Now().UTC()
	dash := Dashboard{GeneratedAt: now}

	var revenue struct {
		Orders  int64
		Revenue decimal.Decimal
	}
	if err := db.Table("orders").Where(salesScope).
		Select("COUNT(*) AS orders, COALESCE(SUM(orders.total_price), 0) AS revenue").
		Scan(&revenue).Error; err != nil {
		return nil, errors.Wrap(err, "sum revenue")
	}
	refunds, err := returnedRefunds(db)
	if err != nil {
		return nil, err
	}
	dash.Totals.Orders = revenue.Orders
	dash.Totals.Revenue = revenue.Revenue.Sub(refunds)

	if err := db.Model(&models.User{}).Count(&dash.Totals.Customers).Error; err != nil {
		return nil, errors.Wrap(err, "count customers")
	}
	if err := db.Model(&models.Product{}).Count(&dash.Totals.Products).Error; err != nil {
		return nil, errors.Wrap(err, "count products")
	}
	if err := db.Model(&models.OrderItem{}).Where("return_status = ?", models.ReturnStatusRequested).
		Count(&dash.Totals.PendingReturns).Error; err != nil {
		return nil, errors.Wrap(err, "count pending returns")
	}

	if dash.TopProducts, err = topProducts(soldItems(db), dashboardTopN); err != nil {
		return nil, err
	}
	if dash.TopCategories, err = topCategories(soldItems(db), dashboardTopN); err != nil {
		return nil, err
	}
	if dash.TopBrands, err = topBrands(soldItems(db), dashboardTopN); err != nil {
		return nil, err
	}

	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	if dash.Monthly, err = monthlySeries(db, firstMonth); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, dashboardCacheKey, dash)
	utils.LogInfo("Dashboard generated: %d orders, revenue %s", dash.Totals.Orders, dash.Totals.Revenue.StringFixed(2))
	return &dash, nil
}

// returnedRefunds sums refunds paid for returned items of orders in q
func returnedRefunds(q *gorm.DB) (decimal.Decimal, error) {
	var total struct{ Refunds decimal.Decimal }
	err := q.Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where(salesScope).
		Where("order_items.status = ?", models.ItemStatusReturned).
		Select("COALESCE(SUM(order_items.refund_amount), 0) AS refunds").
		Scan(&total).Error
	return total.Refunds, errors.Wrap(err, "sum refunds")
}

// monthlySeries returns twelve months of revenue starting at from, with
// empty months filled in
func monthlySeries(db *gorm.DB, from time.Time) ([]MonthlyRevenue, error) {
	var rows []struct {
		Period  string
		Orders  int64
		Revenue decimal.Decimal
	}
	if err := db.Table("orders").Where(salesScope).
		Where("orders.created_at >= ?", from).
		Select(bucketExpr(granularityMonth) + " AS period, COUNT(*) AS orders, COALESCE(SUM(orders.total_price), 0) AS revenue").
		Group("period").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "monthly revenue")
	}
	byMonth := make(map[string]MonthlyRevenue, len(rows))
	for _, r := range rows {
		byMonth[r.Period] = MonthlyRevenue{Month: r.Period, Orders: r.Orders, Revenue: r.Revenue}
	}

	series := make([]MonthlyRevenue, 0, 12)
	for i := 0; i < 12; i++ {
		month := from.AddDate(0, i, 0).Format("2006-01")
		entry, ok := byMonth[month]
		if !ok {
			entry = MonthlyRevenue{Month: month, Revenue: decimal.Zero}
		}
		series = append(series, entry)
	}
	return series, nil
}

// SalesReport aggregates sales in the filter's window. Cancelled orders and
// returned items do not count towards the figures.
func (s *ReportServiceImpl) SalesReport(ctx context.Context, filter SalesReportFilter) (*SalesReport, error) {
	start, end, granularity, err := ResolveRange(filter, time.Now())
	if err != nil {
		return nil, err
	}
	rangeName := strings.ToLower(filter.Range)
	if rangeName == "" {
		rangeName = RangeDaily
	}

	cacheKey := fmt.Sprintf("reports:sales:%s:%s:%s", rangeName, start.Format("20060102"), end.Format("20060102"))
	var cached SalesReport
	if s.cache.Get(ctx, cacheKey, &cached) {
		utils.LogDebug("Sales report %s served from cache", cacheKey)
		return &cached, nil
	}

	db := s.db.WithContext(ctx)
	inRange := func() *gorm.DB {
		return db.Where("orders.created_at >= ? AND orders.created_at < ?", start, end)
	}
	report := SalesReport{
		Range:       rangeName,
		Start:       start,
		End:         end,
		Granularity: granularity,
		GeneratedAt: time.Now().UTC(),
	}

	if report.Buckets, err = salesBuckets(inRange, granularity); err != nil {
		return nil, err
	}
	report.Summary = summarise(report.Buckets)

	if err := inRange().Table("orders").Where(salesScope).
		Select("COUNT(DISTINCT orders.user_id)").Scan(&report.Summary.Customers).Error; err != nil {
		return nil, errors.Wrap(err, "count customers")
	}
	if err := inRange().Table("orders").Where("orders.order_status = ?", models.OrderStatusCancelled).
		Count(&report.Summary.CancelledOrders).Error; err != nil {
		return nil, errors.Wrap(err, "count cancelled orders")
	}
	var charges struct {
		Shipping decimal.Decimal
		Tax      decimal.Decimal
	}
	if err := inRange().Table("orders").Where(salesScope).
		Select("COALESCE(SUM(orders.shipping_price), 0) AS shipping, COALESCE(SUM(orders.tax_price), 0) AS tax").
		Scan(&charges).Error; err != nil {
		return nil, errors.Wrap(err, "sum charges")
	}
	report.Summary.Shipping = charges.Shipping
	report.Summary.Tax = charges.Tax

	report.Payments = []PaymentBreakdown{}
	if err := inRange().Table("orders").Where(salesScope).
		Select("orders.payment_method AS method, COUNT(*) AS orders, COALESCE(SUM(orders.total_price), 0) AS amount").
		Group("orders.payment_method").Order("amount DESC").
		Scan(&report.Payments).Error; err != nil {
		return nil, errors.Wrap(err, "payment breakdown")
	}

	if report.Products, err = topProducts(soldItems(inRange()), reportRollupLimit); err != nil {
		return nil, err
	}
	if report.Categories, err = topCategories(soldItems(inRange()), reportRollupLimit); err != nil {
		return nil, err
	}
	if report.Brands, err = topBrands(soldItems(inRange()), reportRollupLimit); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cacheKey, report)
	utils.LogInfo("Sales report %s generated for %s to %s: %d orders, net %s",
		rangeName, start.Format("2006-01-02"), end.Format("2006-01-02"), report.Summary.Orders, report.Summary.Net.StringFixed(2))
	return &report, nil
}

// salesBuckets merges order level money with item level counts per period
func salesBuckets(inRange func() *gorm.DB, granularity string) ([]SalesBucket, error) {
	period := bucketExpr(granularity)

	var orderRows []struct {
		Period         string
		Orders         int64
		Gross          decimal.Decimal
		OfferDiscount  decimal.Decimal
		CouponDiscount decimal.Decimal
		Total          decimal.Decimal
	}
	if err := inRange().Table("orders").Where(salesScope).
		Select(period + " AS period, COUNT(*) AS orders, " +
			"COALESCE(SUM(orders.items_price + orders.discount_price), 0) AS gross, " +
			"COALESCE(SUM(orders.discount_price), 0) AS offer_discount, " +
			"COALESCE(SUM(orders.coupon_discount), 0) AS coupon_discount, " +
			"COALESCE(SUM(orders.total_price), 0) AS total").
		Group("period").Scan(&orderRows).Error; err != nil {
		return nil, errors.Wrap(err, "bucket orders")
	}

	var itemRows []struct {
		Period  string
		Items   int64
		Refunds decimal.Decimal
	}
	if err := inRange().Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where(salesScope).
		Select(period+" AS period, "+
			"COALESCE(SUM(CASE WHEN order_items.status = ? THEN order_items.quantity ELSE 0 END), 0) AS items, "+
			"COALESCE(SUM(CASE WHEN order_items.status = ? THEN order_items.refund_amount ELSE 0 END), 0) AS refunds",
			models.ItemStatusActive, models.ItemStatusReturned).
		Group("period").Scan(&itemRows).Error; err != nil {
		return nil, errors.Wrap(err, "bucket items")
	}

	buckets := make(map[string]*SalesBucket, len(orderRows))
	for _, r := range orderRows {
		buckets[r.Period] = &SalesBucket{
			Period:         r.Period,
			Orders:         r.Orders,
			Gross:          r.Gross,
			OfferDiscount:  r.OfferDiscount,
			CouponDiscount: r.CouponDiscount,
			Net:            r.Total,
		}
	}
	for _, r := range itemRows {
		b, ok := buckets[r.Period]
		if !ok {
			continue
		}
		b.Items = r.Items
		b.Refunds = r.Refunds
		b.Net = b.Net.Sub(r.Refunds)
	}

	out := make([]SalesBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func summarise(buckets []SalesBucket) SalesSummary {
	sum := SalesSummary{
		Gross:          decimal.Zero,
		OfferDiscount:  decimal.Zero,
		CouponDiscount: decimal.Zero,
		Refunds:        decimal.Zero,
		Net:            decimal.Zero,
	}
	for _, b := range buckets {
		sum.Orders += b.Orders
		sum.Items += b.Items
		sum.Gross = sum.Gross.Add(b.Gross)
		sum.OfferDiscount = sum.OfferDiscount.Add(b.OfferDiscount)
		sum.CouponDiscount = sum.CouponDiscount.Add(b.CouponDiscount)
		sum.Refunds = sum.Refunds.Add(b.Refunds)
		sum.Net = sum.Net.Add(b.Net)
	}
	sum.AverageOrderValue = decimal.Zero
	if sum.Orders > 0 {
		sum.AverageOrderValue = sum.Net.Div(decimal.NewFromInt(sum.Orders)).Round(2)
	}
	return sum
}
