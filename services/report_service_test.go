package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekoya/storefront/utils"
)

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, time.March, 15, 18, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name        string
		filter      SalesReportFilter
		start       time.Time
		end         time.Time
		granularity string
	}{
		{"default is today", SalesReportFilter{}, day(2025, 3, 15), day(2025, 3, 16), granularityDay},
		{"daily", SalesReportFilter{Range: "daily"}, day(2025, 3, 15), day(2025, 3, 16), granularityDay},
		{"weekly", SalesReportFilter{Range: "WEEKLY"}, day(2025, 3, 9), day(2025, 3, 16), granularityDay},
		{"monthly", SalesReportFilter{Range: "monthly"}, day(2025, 2, 14), day(2025, 3, 16), granularityDay},
		{"yearly", SalesReportFilter{Range: "yearly"}, day(2024, 4, 1), day(2025, 3, 16), granularityMonth},
		{"custom inclusive end", SalesReportFilter{Range: "custom", StartDate: "2025-01-01", EndDate: "2025-01-31"},
			day(2025, 1, 1), day(2025, 2, 1), granularityDay},
		{"long custom by month", SalesReportFilter{Range: "custom", StartDate: "2024-06-01", EndDate: "2025-01-31"},
			day(2024, 6, 1), day(2025, 2, 1), granularityMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, granularity, err := ResolveRange(tt.filter, now)
			require.NoError(t, err)
			assert.True(t, tt.start.Equal(start), "start %s, want %s", start, tt.start)
			assert.True(t, tt.end.Equal(end), "end %s, want %s", end, tt.end)
			assert.Equal(t, tt.granularity, granularity)
		})
	}
}

func TestResolveRangeRejects(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	filters := map[string]SalesReportFilter{
		"unknown range":    {Range: "hourly"},
		"custom no dates":  {Range: "custom"},
		"bad start":        {Range: "custom", StartDate: "01-01-2025", EndDate: "2025-01-31"},
		"end before start": {Range: "custom", StartDate: "2025-02-01", EndDate: "2025-01-01"},
		"longer than year": {Range: "custom", StartDate: "2023-01-01", EndDate: "2025-01-01"},
	}
	for name, filter := range filters {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := ResolveRange(filter, now)
			require.Error(t, err)
			assert.True(t, utils.HasErrorType(err, utils.ErrTypeValidation))
		})
	}
}

func TestSalesReportFileName(t *testing.T) {
	r := &SalesReport{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "sales-report-2025-01-01-2025-01-31.pdf", r.FileName("pdf"))
}

func TestRenderSalesExports(t *testing.T) {
	report := &SalesReport{
		Range:       RangeCustom,
		Start:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		Granularity: granularityDay,
		Buckets:     []SalesBucket{{Period: "2025-01-01", Orders: 2, Items: 3}},
		Payments:    []PaymentBreakdown{{Method: "COD", Orders: 2}},
		Products:    []RankedItem{{ID: 1, Name: "Linen Shirt", Quantity: 3}},
		Categories:  []RankedItem{{Name: "Shirts", Quantity: 3}},
		Brands:      []RankedItem{{Name: "Zekoya", Quantity: 3}},
		GeneratedAt: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC),
	}

	xlsxData, err := RenderSalesExcel(report)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(xlsxData[:2]))

	pdfData, err := RenderSalesPDF(report)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfData[:4]))
}
