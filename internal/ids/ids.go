package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// Code builds a terminal-scoped identifier such as POS_TERMINAL-01_<uuid>.
// The UUID suffix makes codes collision-resistant even when two codes are
// generated within the same clock tick, so a stuck double-submit can never
// reuse an identifier.
func Code(prefix string, terminalID string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, terminalID, uuid.NewString())
}

// CartCode returns a fresh cart identifier for the terminal.
func CartCode(terminalID string) string {
	return Code("POS", terminalID)
}

// OrderCode returns a fresh order identifier. Orders share the cart code
// scheme so receipts and ledger rows can be traced back to a terminal.
func OrderCode(terminalID string) string {
	return Code("POS", terminalID)
}

// IdempotencyKey returns a key for order submission deduplication.
func IdempotencyKey() string {
	return uuid.NewString()
}
