package charts

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramWritesPNG(t *testing.T) {
	r := NewRenderer(t.TempDir())

	path, err := r.Histogram("fraud.csv", "Amount", []float64{1, 2, 2, 3, 3, 3, 4, 5})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".png"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHistogramEmpty(t *testing.T) {
	r := NewRenderer(t.TempDir())
	_, err := r.Histogram("fraud.csv", "Amount", nil)
	assert.Error(t, err)
}

func TestBarChartWritesPNG(t *testing.T) {
	r := NewRenderer(t.TempDir())

	path, err := r.BarChart("fraud.csv", "Class", []string{"0", "1"}, []float64{90, 10})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBarChartMismatchedInput(t *testing.T) {
	r := NewRenderer(t.TempDir())
	_, err := r.BarChart("fraud.csv", "Class", []string{"0", "1"}, []float64{1})
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "fraud.csv", sanitize("fraud.csv"))
	assert.Equal(t, "a_b_c", sanitize("a b/c"))
}
