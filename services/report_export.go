package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"github.com/zekoya/storefront/utils"
)

func boldStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	style.Font = *font
	return style
}

func addHeader(sheet *xlsx.Sheet, headers ...string) {
	row := sheet.AddRow()
	style := boldStyle()
	for _, h := range headers {
		cell := row.AddCell()
		cell.SetString(h)
		cell.SetStyle(style)
	}
}

func setMoney(cell *xlsx.Cell, d decimal.Decimal) {
	f, _ := d.Round(2).Float64()
	cell.SetFloat(f)
}

func addRankedSheet(file *xlsx.File, name, label string, rows []RankedItem) error {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return errors.Wrapf(err, "add %s sheet", name)
	}
	addHeader(sheet, label, "Quantity", "Revenue")
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetInt64(r.Quantity)
		setMoney(row.AddCell(), r.Revenue)
	}
	return nil
}

// RenderSalesExcel writes the report as a workbook with one sheet per view
func RenderSalesExcel(r *SalesReport) ([]byte, error) {
	file := xlsx.NewFile()

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return nil, errors.Wrap(err, "add summary sheet")
	}
	title := summary.AddRow().AddCell()
	title.SetString(strings.ToUpper(utils.AppName) + " - Sales Report")
	title.SetStyle(boldStyle())
	summary.AddRow().AddCell().SetString(fmt.Sprintf("Range: %s | %s to %s",
		strings.ToUpper(r.Range), r.Start.Format("2006-01-02"), r.End.AddDate(0, 0, -1).Format("2006-01-02")))
	summary.AddRow()

	addHeader(summary, "Metric", "Value")
	counts := []struct {
		label string
		value int64
	}{
		{"Orders", r.Summary.Orders},
		{"Items Sold", r.Summary.Items},
		{"Customers", r.Summary.Customers},
		{"Cancelled Orders", r.Summary.CancelledOrders},
	}
	for _, c := range counts {
		row := summary.AddRow()
		row.AddCell().SetString(c.label)
		row.AddCell().SetInt64(c.value)
	}
	amounts := []struct {
		label string
		value decimal.Decimal
	}{
		{"Gross Sales", r.Summary.Gross},
		{"Offer Discounts", r.Summary.OfferDiscount},
		{"Coupon Discounts", r.Summary.CouponDiscount},
		{"Shipping", r.Summary.Shipping},
		{"Tax", r.Summary.Tax},
		{"Refunds", r.Summary.Refunds},
		{"Net Revenue", r.Summary.Net},
		{"Avg. Order Value", r.Summary.AverageOrderValue},
	}
	for _, a := range amounts {
		row := summary.AddRow()
		row.AddCell().SetString(a.label)
		setMoney(row.AddCell(), a.value)
	}

	daily, err := file.AddSheet("Daily")
	if err != nil {
		return nil, errors.Wrap(err, "add daily sheet")
	}
	addHeader(daily, "Period", "Orders", "Items", "Gross", "Offer Discount", "Coupon Discount", "Refunds", "Net")
	for _, b := range r.Buckets {
		row := daily.AddRow()
		row.AddCell().SetString(b.Period)
		row.AddCell().SetInt64(b.Orders)
		row.AddCell().SetInt64(b.Items)
		setMoney(row.AddCell(), b.Gross)
		setMoney(row.AddCell(), b.OfferDiscount)
		setMoney(row.AddCell(), b.CouponDiscount)
		setMoney(row.AddCell(), b.Refunds)
		setMoney(row.AddCell(), b.Net)
	}

	if err := addRankedSheet(file, "Products", "Product", r.Products); err != nil {
		return nil, err
	}
	if err := addRankedSheet(file, "Categories", "Category", r.Categories); err != nil {
		return nil, err
	}

	payments, err := file.AddSheet("Payments")
	if err != nil {
		return nil, errors.Wrap(err, "add payments sheet")
	}
	addHeader(payments, "Method", "Orders", "Amount")
	for _, p := range r.Payments {
		row := payments.AddRow()
		row.AddCell().SetString(p.Method)
		row.AddCell().SetInt64(p.Orders)
		setMoney(row.AddCell(), p.Amount)
	}
	payments.AddRow()
	addHeader(payments, "Brand", "Quantity", "Revenue")
	for _, b := range r.Brands {
		row := payments.AddRow()
		row.AddCell().SetString(b.Name)
		row.AddCell().SetInt64(b.Quantity)
		setMoney(row.AddCell(), b.Revenue)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func pdfTable(pdf *gofpdf.Fpdf, title string, headers []string, widths []float64, rows [][]string) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 9, title)
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	fill := false
	for _, row := range rows {
		pdf.SetFillColor(245, 245, 245)
		if fill {
			pdf.SetFillColor(230, 240, 255)
		}
		for i, v := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, v, "1", 0, align, fill, 0, "")
		}
		fill = !fill
		pdf.Ln(-1)
	}
}

func rankedRows(items []RankedItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Name, fmt.Sprintf("%d", it.Quantity), money(it.Revenue)})
	}
	return rows
}

// RenderSalesPDF draws the report on landscape A4 pages
func RenderSalesPDF(r *SalesReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(0, 12, strings.ToUpper(utils.AppName)+" - Sales Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Range: %s | %s to %s", strings.ToUpper(r.Range),
		r.Start.Format("2006-01-02"), r.End.AddDate(0, 0, -1).Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 8, "Generated: "+r.GeneratedAt.Format("2006-01-02 15:04")+" UTC")
	pdf.Ln(6)

	pdfTable(pdf, "Summary", []string{"Metric", "Value"}, []float64{70, 50}, [][]string{
		{"Orders", fmt.Sprintf("%d", r.Summary.Orders)},
		{"Items Sold", fmt.Sprintf("%d", r.Summary.Items)},
		{"Customers", fmt.Sprintf("%d", r.Summary.Customers)},
		{"Cancelled Orders", fmt.Sprintf("%d", r.Summary.CancelledOrders)},
		{"Gross Sales", money(r.Summary.Gross)},
		{"Offer Discounts", money(r.Summary.OfferDiscount)},
		{"Coupon Discounts", money(r.Summary.CouponDiscount)},
		{"Shipping", money(r.Summary.Shipping)},
		{"Tax", money(r.Summary.Tax)},
		{"Refunds", money(r.Summary.Refunds)},
		{"Net Revenue", money(r.Summary.Net)},
		{"Avg. Order Value", money(r.Summary.AverageOrderValue)},
	})

	buckets := make([][]string, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		buckets = append(buckets, []string{
			b.Period,
			fmt.Sprintf("%d", b.Orders),
			fmt.Sprintf("%d", b.Items),
			money(b.Gross),
			money(b.OfferDiscount),
			money(b.CouponDiscount),
			money(b.Refunds),
			money(b.Net),
		})
	}
	pdf.AddPage()
	pdfTable(pdf, "Sales by "+r.Granularity,
		[]string{"Period", "Orders", "Items", "Gross", "Offer Disc.", "Coupon Disc.", "Refunds", "Net"},
		[]float64{35, 25, 25, 35, 35, 35, 35, 40}, buckets)

	payments := make([][]string, 0, len(r.Payments))
	for _, p := range r.Payments {
		payments = append(payments, []string{p.Method, fmt.Sprintf("%d", p.Orders), money(p.Amount)})
	}
	pdfTable(pdf, "Payment Methods", []string{"Method", "Orders", "Amount"}, []float64{70, 40, 50}, payments)

	pdf.AddPage()
	ranked := []float64{120, 40, 50}
	pdfTable(pdf, "Products", []string{"Product", "Quantity", "Revenue"}, ranked, rankedRows(r.Products))
	pdfTable(pdf, "Categories", []string{"Category", "Quantity", "Revenue"}, ranked, rankedRows(r.Categories))
	pdfTable(pdf, "Brands", []string{"Brand", "Quantity", "Revenue"}, ranked, rankedRows(r.Brands))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render sales pdf")
	}
	return buf.Bytes(), nil
}
