package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/catalog"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/scanner"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/session"
)

const scanField = "scan-capture"

// console is the terminal's line-based operator interface. Plain lines are
// treated as a scanner keystroke burst and run through the decoder; lines
// starting with ':' are operator commands.
type console struct {
	sess    *session.Session
	catalog *catalog.Catalog
	decoder *scanner.Decoder

	out io.Writer
	ctx context.Context
}

func newConsole(sess *session.Session, cat *catalog.Catalog) *console {
	c := &console{sess: sess, catalog: cat}
	c.decoder = scanner.NewDecoder(scanField, c.onScan)
	return c
}

func (c *console) run(ctx context.Context, in io.Reader, out io.Writer) {
	c.out = out
	c.ctx = ctx

	fmt.Fprintf(out, "cart %s ready, type :help for commands\n", c.sess.CartCode())
	c.decoder.Activate()

	lines := bufio.NewScanner(in)
	for lines.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(lines.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, ":"):
			if !c.command(line) {
				return
			}
		default:
			c.feedScan(line)
		}
	}
}

// feedScan replays a line as the keystroke burst a keyboard-wedge scanner
// would produce: runes into the capture field, then Enter.
func (c *console) feedScan(line string) {
	for _, r := range line {
		c.decoder.HandleKey(scanner.KeyEvent{Key: scanner.KeyRune, Rune: r, TargetField: scanField})
	}
	if !c.decoder.HandleKey(scanner.KeyEvent{Key: scanner.KeyEnter, TargetField: scanField}) {
		fmt.Fprintln(c.out, "scanning mode is off, use :scan to enable")
	}
}

func (c *console) onScan(code string) {
	if err := c.sess.AddScannedCode(c.ctx, code); err != nil {
		fmt.Fprintf(c.out, "scan %s: %v\n", code, err)
		return
	}
	c.printCart()
}

// command executes one ':' line and reports whether the loop should continue.
func (c *console) command(line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return true
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		c.printHelp()
	case "scan":
		c.decoder.Activate()
		fmt.Fprintln(c.out, "scanning mode on")
	case "stop":
		c.decoder.Deactivate()
		fmt.Fprintln(c.out, "scanning mode off")
	case "add":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: :add <product-id>")
			return true
		}
		c.report(c.sess.AddProduct(c.ctx, args[0]))
	case "qty":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: :qty <product-id> <quantity>")
			return true
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "bad quantity %q\n", args[1])
			return true
		}
		c.report(c.sess.UpdateQuantity(c.ctx, args[0], qty))
	case "rm":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: :rm <product-id>")
			return true
		}
		c.report(c.sess.RemoveProduct(c.ctx, args[0]))
	case "clear":
		if err := c.sess.ClearCart(c.ctx); err != nil {
			fmt.Fprintln(c.out, "error:", err)
			return true
		}
		fmt.Fprintf(c.out, "cart cleared, new cart %s\n", c.sess.CartCode())
	case "cart":
		c.printCart()
	case "history":
		c.printHistory()
	case "refresh":
		if err := c.catalog.Refresh(c.ctx); err != nil {
			fmt.Fprintln(c.out, "error:", err)
			return true
		}
		fmt.Fprintf(c.out, "catalog refreshed, %d products\n", len(c.catalog.Products()))
	case "checkout":
		c.checkout(args)
	case "cancel":
		c.sess.CancelCheckout()
		fmt.Fprintln(c.out, "checkout cancelled")
	case "quit", "exit":
		return false
	default:
		fmt.Fprintf(c.out, "unknown command %q, try :help\n", cmd)
	}
	return true
}

func (c *console) checkout(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: :checkout cash <tendered> | :checkout credit <name> <mobile>")
		return
	}

	var details session.PaymentDetails
	switch strings.ToUpper(args[0]) {
	case domain.PaymentCash:
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: :checkout cash <tendered>")
			return
		}
		tendered, err := decimal.NewFromString(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "bad amount %q\n", args[1])
			return
		}
		details = session.PaymentDetails{Method: domain.PaymentCash, CashTendered: tendered}
	case domain.PaymentCredit:
		if len(args) < 3 {
			fmt.Fprintln(c.out, "usage: :checkout credit <name> <mobile>")
			return
		}
		details = session.PaymentDetails{
			Method:         domain.PaymentCredit,
			CustomerName:   strings.Join(args[1:len(args)-1], " "),
			CustomerMobile: args[len(args)-1],
		}
	default:
		fmt.Fprintf(c.out, "unsupported payment method %q\n", args[0])
		return
	}

	if err := c.sess.BeginCheckout(); err != nil {
		fmt.Fprintln(c.out, "error:", err)
		return
	}

	result, err := c.sess.ConfirmPayment(c.ctx, details)
	if err != nil {
		c.sess.CancelCheckout()
		fmt.Fprintln(c.out, "error:", err)
		return
	}

	fmt.Fprintf(c.out, "order %s committed, total %s\n", result.OrderCode, result.Total.StringFixed(2))
	if details.Method == domain.PaymentCash {
		fmt.Fprintf(c.out, "change due: %s\n", result.Change.StringFixed(2))
	}
	if result.MarkPaidErr != nil {
		fmt.Fprintln(c.out, "warning:", result.MarkPaidErr)
	}
	if result.LedgerErr != nil {
		fmt.Fprintln(c.out, "warning:", result.LedgerErr)
	}
	fmt.Fprintln(c.out, result.Receipt.PreviewText)
	fmt.Fprintf(c.out, "next cart %s ready\n", c.sess.CartCode())
}

func (c *console) report(err error) {
	if err != nil {
		fmt.Fprintln(c.out, "error:", err)
		return
	}
	c.printCart()
}

func (c *console) printCart() {
	cart := c.sess.Cart()
	if cart.IsEmpty() {
		fmt.Fprintf(c.out, "cart %s is empty\n", cart.CartCode)
		return
	}
	for _, item := range cart.LineItems {
		name := item.ProductID
		if p, ok := c.catalog.Get(item.ProductID); ok {
			name = p.Name
		}
		fmt.Fprintf(c.out, "  %-24s x%-3d %s\n", name, item.Quantity, item.FinalPrice.StringFixed(2))
	}
	fmt.Fprintf(c.out, "total: %s\n", cart.Total.StringFixed(2))
}

func (c *console) printHistory() {
	events := c.sess.History().Recent()
	if len(events) == 0 {
		fmt.Fprintln(c.out, "no scans yet")
		return
	}
	for _, ev := range events {
		fmt.Fprintf(c.out, "  %s  %-13s %s\n", ev.Timestamp.Format("15:04:05"), ev.Code, ev.Status)
	}
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, `commands:
  <barcode>                      scan a barcode (scanning mode must be on)
  :scan / :stop                  toggle scanning mode
  :add <product-id>              add one unit
  :qty <product-id> <n>          set absolute quantity (0 removes)
  :rm <product-id>               remove a line item
  :clear                         void the cart and start a new one
  :cart                          show the cart
  :history                       show recent scans
  :refresh                       re-pull the product catalog
  :checkout cash <tendered>      cash checkout
  :checkout credit <name> <mob>  credit checkout
  :cancel                        abandon checkout
  :quit`)
}
