package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/zekoya/storefront/models"
	"github.com/zekoya/storefront/utils"
)

// InvoiceRenderer draws order invoices and keeps a copy under dir
type InvoiceRenderer struct {
	dir string
}

func NewInvoiceRenderer(uploadDir string) *InvoiceRenderer {
	return &InvoiceRenderer{dir: filepath.Join(uploadDir, "invoices")}
}

func money(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}

// Render builds the PDF for order. order.User should be loaded.
func (r *InvoiceRenderer) Render(order *models.Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, utils.AppName)
	pdf.SetFont("Arial", "", 11)
	pdf.Ln(8)
	pdf.Cell(100, 7, "Email: support@zekoya.in")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "INVOICE")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(80, 7, "Order: "+order.OrderID)
	pdf.Cell(80, 7, "Date: "+order.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(80, 7, "Payment: "+order.PaymentMethod+" ("+order.PaymentStatus+")")
	pdf.Cell(80, 7, "Status: "+order.OrderStatus)
	pdf.Ln(10)

	if order.User != nil {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(100, 7, "Billed To:")
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 11)
		pdf.Cell(100, 6, order.User.Name)
		pdf.Ln(6)
		pdf.Cell(100, 6, order.User.Email)
		pdf.Ln(8)
	}

	addr := order.ShippingAddress
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(100, 7, "Ship To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(100, 6, addr.FullName+"  "+addr.Phone)
	pdf.Ln(6)
	pdf.Cell(100, 6, addr.Line1)
	pdf.Ln(6)
	if addr.Line2 != "" {
		pdf.Cell(100, 6, addr.Line2)
		pdf.Ln(6)
	}
	pdf.Cell(100, 6, fmt.Sprintf("%s, %s, %s - %s", addr.City, addr.State, addr.Country, addr.PostalCode))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 8, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 8, "Size", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 8, "Status", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range order.OrderItems {
		pdf.CellFormat(70, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 8, item.Size, "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 8, fmt.Sprint(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, money(item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, money(item.LineTotal()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, item.Status, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Items:", order.ItemsPrice},
		{"Offer savings:", order.DiscountPrice},
		{"Tax:", order.TaxPrice},
		{"Shipping:", order.ShippingPrice},
		{"Coupon " + order.CouponCode + ":", order.CouponDiscount.Neg()},
	}
	for _, row := range summary {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(140, 7, row.label, "", 0, "R", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(45, 7, money(row.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(140, 10, "Grand Total:", "", 0, "R", false, 0, "")
	pdf.CellFormat(45, 10, money(order.TotalPrice), "", 1, "R", false, 0, "")
	if order.RefundedAmount.IsPositive() {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(140, 7, "Refunded to wallet:", "", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, money(order.RefundedAmount), "", 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 11)
	pdf.Cell(0, 10, "Thank you for shopping with "+utils.AppName+"!")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrapf(err, "render invoice %s", order.OrderID)
	}

	r.store(order.OrderID, buf.Bytes())
	utils.LogInfo("Invoice generated for order %s", order.OrderID)
	return buf.Bytes(), nil
}

// store keeps a copy on disk; a failed write does not fail the download
func (r *InvoiceRenderer) store(orderCode string, data []byte) {
	if r.dir == "" {
		return
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		utils.LogError("Failed to create invoice directory %s: %v", r.dir, err)
		return
	}
	path := filepath.Join(r.dir, orderCode+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		utils.LogError("Failed to save invoice %s: %v", path, err)
	}
}
