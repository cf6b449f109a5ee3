package observ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "shop.log")
	l, err := NewLogger(file, "debug")
	require.NoError(t, err)
	l.Debug("consumer started")
	_ = l.Sync()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"consumer started"`)
}

func TestNewLoggerBadLevel(t *testing.T) {
	_, err := NewLogger("", "loud")
	assert.Error(t, err)
}

func TestOrderRejectionCounter(t *testing.T) {
	before := testutil.ToFloat64(OrderRejections.WithLabelValues("out_of_stock"))
	OrderRejections.WithLabelValues("out_of_stock").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(OrderRejections.WithLabelValues("out_of_stock")))
}
