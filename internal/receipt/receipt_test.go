package receipt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

func sampleData(method string) Data {
	return Data{
		AppName:       "Entsuki POS",
		TerminalID:    "TERMINAL-01",
		OrderCode:     "POS_TERMINAL-01_ord",
		PaymentMethod: method,
		CustomerName:  "Ana Cruz",
		Cart: domain.Cart{
			CartCode: "POS_TERMINAL-01_cart",
			LineItems: []domain.LineItem{
				{ProductID: "prod-cola", Quantity: 2, UnitPrice: decimal.RequireFromString("25.00"), FinalPrice: decimal.RequireFromString("50.00")},
			},
			SubtotalAdjustments: []domain.SubtotalAdjustment{{Name: "Service Charge", Value: decimal.Zero}},
			Total:               decimal.RequireFromString("50.00"),
		},
		CashTendered: decimal.RequireFromString("100.00"),
		Change:       decimal.RequireFromString("50.00"),
		IssuedAt:     time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildCashReceipt(t *testing.T) {
	r := Build(sampleData(domain.PaymentCash))

	assert.Equal(t, "POS_TERMINAL-01_ord", r.OrderCode)
	assert.Equal(t, "receipt-POS_TERMINAL-01_ord.bin", r.FileName)

	assert.Contains(t, r.PreviewText, "Entsuki POS")
	assert.Contains(t, r.PreviewText, "Order: POS_TERMINAL-01_ord")
	assert.Contains(t, r.PreviewText, "prod-cola x2")
	assert.Contains(t, r.PreviewText, "Service Charge: 0.00")
	assert.Contains(t, r.PreviewText, "Total    : 50.00")
	assert.Contains(t, r.PreviewText, "Tendered : 100.00")
	assert.Contains(t, r.PreviewText, "Change   : 50.00")
	assert.NotContains(t, r.PreviewText, "Customer :")
}

func TestBuildCreditReceipt(t *testing.T) {
	r := Build(sampleData(domain.PaymentCredit))

	assert.Contains(t, r.PreviewText, "Customer : Ana Cruz")
	assert.NotContains(t, r.PreviewText, "Tendered")
	assert.NotContains(t, r.PreviewText, "Change")
}

func TestBuildEscposFraming(t *testing.T) {
	r := Build(sampleData(domain.PaymentCash))

	require.Greater(t, len(r.Escpos), 6)
	assert.Equal(t, []byte{0x1b, 0x40}, r.Escpos[:2], "initialize")
	assert.Equal(t, []byte{0x1d, 0x56, 0x41, 0x10}, r.Escpos[len(r.Escpos)-4:], "partial cut")
}

func TestBuildIncludesDiscountLine(t *testing.T) {
	data := sampleData(domain.PaymentCash)
	data.Cart.DiscountInfo = &domain.DiscountInfo{
		TotalOriginalAmount: decimal.RequireFromString("60.00"),
		TotalDiscountAmount: decimal.RequireFromString("10.00"),
	}

	r := Build(data)
	assert.Contains(t, r.PreviewText, "Discount : -10.00")
}

func TestFilePrinterSpoolsEscpos(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	p := FilePrinter{Dir: dir}

	r := Build(sampleData(domain.PaymentCash))
	require.NoError(t, p.Print(context.Background(), r))

	raw, err := os.ReadFile(filepath.Join(dir, r.FileName))
	require.NoError(t, err)
	assert.Equal(t, r.Escpos, raw)
}

func TestLogPrinterNeverFails(t *testing.T) {
	r := Build(sampleData(domain.PaymentCredit))
	assert.NoError(t, LogPrinter{}.Print(context.Background(), r))
}
