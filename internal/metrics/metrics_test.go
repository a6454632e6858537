package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRead(t *testing.T) {
	m := New([]string{"checksum_mismatch", "handshake_timeout_low"})

	m.ObserveRead("ok", 25*time.Millisecond)
	m.ObserveRead("ok", 26*time.Millisecond)
	m.ObserveRead("checksum_mismatch", 26*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reads.WithLabelValues("checksum_mismatch")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.reads.WithLabelValues("handshake_timeout_low")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.reads))
}

func TestSetReadingAndFault(t *testing.T) {
	m := New(nil)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.SetReading(24, 50, at)
	assert.Equal(t, 24.0, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.humidity))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSuccess))

	m.SetFaulted(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.faulted))
	m.SetFaulted(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.faulted))
}

func TestHandler(t *testing.T) {
	m := New([]string{"high_measure_timeout"})
	m.ObserveRead("ok", 25*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.True(t, strings.Contains(out, `dht11_reads_total{result="ok"} 1`), out)
	assert.Contains(t, out, `dht11_reads_total{result="high_measure_timeout"} 0`)
	assert.Contains(t, out, "dht11_read_duration_seconds_bucket")
}
