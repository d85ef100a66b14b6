package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartCodeFormat(t *testing.T) {
	code := CartCode("TERMINAL-01")
	assert.True(t, strings.HasPrefix(code, "POS_TERMINAL-01_"))

	parts := strings.SplitN(code, "_", 3)
	assert.Len(t, parts, 3)
	assert.Len(t, parts[2], 36, "suffix should be a UUID")
}

func TestCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := OrderCode("T1")
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
