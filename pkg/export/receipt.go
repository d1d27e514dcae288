package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt holds the fields printed on a payment receipt.
type Receipt struct {
	PaymentID       string
	TransactionID   string
	StudentEmail    string
	InstructorEmail string
	ClassName       string
	Amount          int64
	Currency        string
	PaidAt          time.Time
}

// ReceiptRenderer renders payment receipts as PDF documents.
type ReceiptRenderer struct{}

// NewReceiptRenderer constructs a receipt renderer.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

// Render produces the PDF bytes for a single receipt.
func (r *ReceiptRenderer) Render(receipt Receipt) ([]byte, error) {
	if receipt.PaymentID == "" {
		return nil, fmt.Errorf("receipt requires a payment id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "TUNE CRAFT - PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt No.", receipt.PaymentID},
		{"Transaction", receipt.TransactionID},
		{"Class", receipt.ClassName},
		{"Student", receipt.StudentEmail},
		{"Instructor", receipt.InstructorEmail},
		{"Amount", formatAmount(receipt.Amount, receipt.Currency)},
		{"Paid at", receipt.PaidAt.UTC().Format(time.RFC1123)},
	}

	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(135, 8, row[1], "1", 1, "L", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(minor int64, currency string) string {
	if currency == "" {
		currency = "usd"
	}
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, currency)
}
