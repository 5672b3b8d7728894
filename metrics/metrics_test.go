package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.WebhookEvent("created", OutcomeAccepted)
	m.WebhookEvent("created", OutcomeAccepted)
	m.WebhookEvent("", OutcomeRejected)
	m.ChannelPush("booking", nil)
	m.ChannelPush("booking", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhookEventCount("created", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookEventCount("unknown", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelPushCount("booking", OutcomeSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelPushCount("booking", OutcomeFailed)))
}

func TestMetrics_ProcessingHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveProcessing("modified", 30*time.Millisecond)
	m.ObserveProcessing("modified", 70*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, f := range families {
		if f.GetName() == "hotel_sync_webhook_processing_seconds" {
			require.Len(t, f.GetMetric(), 1)
			hist = f.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.1, hist.GetSampleSum(), 1e-9)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.WebhookEvent("created", OutcomeAccepted)
		m.ObserveProcessing("created", time.Second)
		m.ChannelPush("booking", nil)
	})
}
