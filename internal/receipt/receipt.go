package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

// Data is everything a printed receipt needs; the orchestrator fills it in
// at checkout time.
type Data struct {
	AppName       string
	TerminalID    string
	OrderCode     string
	PaymentMethod string
	CustomerName  string
	Cart          domain.Cart
	CashTendered  decimal.Decimal
	Change        decimal.Decimal
	IssuedAt      time.Time
}

type Receipt struct {
	OrderCode   string
	PreviewText string
	Escpos      []byte
	FileName    string
}

// Build renders the receipt as plain text plus an ESC/POS byte stream
// (initialize, body, partial cut) for a thermal printer bridge.
func Build(data Data) Receipt {
	lines := []string{
		data.AppName,
		"========================",
		"Order: " + data.OrderCode,
		"Terminal: " + data.TerminalID,
		"Date: " + data.IssuedAt.Format("2006-01-02 15:04:05"),
		"------------------------",
	}
	for _, item := range data.Cart.LineItems {
		lines = append(lines, fmt.Sprintf("%s x%d", item.ProductID, item.Quantity))
		lines = append(lines, fmt.Sprintf("  %s", item.FinalPrice.StringFixed(2)))
	}
	for _, adj := range data.Cart.SubtotalAdjustments {
		lines = append(lines, fmt.Sprintf("%s: %s", adj.Name, adj.Value.StringFixed(2)))
	}
	if data.Cart.DiscountInfo != nil {
		lines = append(lines, fmt.Sprintf("Discount : -%s", data.Cart.DiscountInfo.TotalDiscountAmount.StringFixed(2)))
	}
	lines = append(lines,
		"------------------------",
		fmt.Sprintf("Total    : %s", data.Cart.Total.StringFixed(2)),
		"Payment  : "+data.PaymentMethod,
	)
	switch data.PaymentMethod {
	case domain.PaymentCash:
		lines = append(lines,
			fmt.Sprintf("Tendered : %s", data.CashTendered.StringFixed(2)),
			fmt.Sprintf("Change   : %s", data.Change.StringFixed(2)),
		)
	case domain.PaymentCredit:
		lines = append(lines, "Customer : "+data.CustomerName)
	}
	lines = append(lines,
		"========================",
		"Thank you for shopping",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return Receipt{
		OrderCode:   data.OrderCode,
		PreviewText: strings.Join(lines, "\n"),
		Escpos:      escpos,
		FileName:    fmt.Sprintf("receipt-%s.bin", data.OrderCode),
	}
}

// Printer dispatches a built receipt to whatever stands in for the print
// dialog: a spool directory, a printer bridge, or just the log.
type Printer interface {
	Print(ctx context.Context, r Receipt) error
}

// FilePrinter spools ESC/POS receipts into a directory for a local printer
// bridge to pick up.
type FilePrinter struct {
	Dir string
}

func (p FilePrinter) Print(_ context.Context, r Receipt) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("creating receipt dir: %w", err)
	}
	path := filepath.Join(p.Dir, r.FileName)
	if err := os.WriteFile(path, r.Escpos, 0o644); err != nil {
		return fmt.Errorf("writing receipt: %w", err)
	}
	return nil
}

// LogPrinter writes the preview text to the log; useful in development and
// as a fallback when no spool directory is configured.
type LogPrinter struct {
	Logger *zap.Logger
}

func (p LogPrinter) Print(_ context.Context, r Receipt) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("receipt", zap.String("order_code", r.OrderCode), zap.String("preview", r.PreviewText))
	return nil
}
