package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltz-checkout/cycle-ladder/internal/testutil"
)

func TestRenderLadder(t *testing.T) {
	out := renderLadder(testutil.TwoBandLadder())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "MIN")
	assert.Contains(t, lines[1], "─")
	assert.Contains(t, lines[2], "low")
	assert.Contains(t, lines[2], "1000")
	assert.Contains(t, lines[3], "high")
	assert.Contains(t, lines[3], "∞")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "50001", formatAmount(50001))
	assert.Equal(t, "4100.5", formatAmount(4100.5))
	assert.Equal(t, "0", formatAmount(0))
}

func TestFormatError(t *testing.T) {
	assert.Contains(t, FormatError(errors.New("boom")), "✗ boom")
}
