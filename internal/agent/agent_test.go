package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clabwatch/internal/config"
	"clabwatch/internal/gnmi"
	"clabwatch/internal/model"
)

func chartConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.ParseDeviceList("leaf1")
	require.NoError(t, cfg.ParseThresholdLists("100,100", "10000,10000"))
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	// No devices.
	_, err = New(cfg, BuildLogger(cfg))
	require.Error(t, err)
}

func TestBuildDeviceResult(t *testing.T) {
	cfg := chartConfig(t)
	metrics := gnmi.RouteMetrics(cfg.Families)

	series := make(map[string]*model.Series, len(metrics))
	for _, m := range metrics {
		series[m] = &model.Series{Device: "leaf1", Metric: m}
	}
	total := series["ipv4-unicast/total"]
	for i, v := range []uint64{50, 200, 12000} {
		total.Append(float64(i), v)
		total.Ticks++
	}
	// ipv6 never reached its start threshold.
	v6 := series["ipv6-unicast/total"]
	v6.Append(0, 10)
	v6.Ticks++

	dr := buildDeviceResult(cfg, "leaf1", metrics, series)

	require.Equal(t, "leaf1", dr.Device)
	require.Len(t, dr.Series, 4, "one series per metric, in metric order")
	require.Equal(t, "ipv4-unicast/total", dr.Series[0].Metric)

	require.Len(t, dr.Results, 2, "one result per thresholded family")
	require.Equal(t, model.StatusFound, dr.Results[0].Status)
	require.Equal(t, 1.0, *dr.Results[0].StartTime)
	require.Equal(t, 2.0, *dr.Results[0].EndTime)
	require.Equal(t, model.StatusStartNotReached, dr.Results[1].Status)
}

func TestBuildDeviceResultNoThresholds(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.ParseDeviceList("leaf1")
	metrics := gnmi.RouteMetrics(cfg.Families)

	series := map[string]*model.Series{}
	for _, m := range metrics {
		series[m] = &model.Series{Device: "leaf1", Metric: m}
	}

	dr := buildDeviceResult(cfg, "leaf1", metrics, series)
	require.Empty(t, dr.Results, "no thresholds means chart data only")
}

func TestHealthSnapshot(t *testing.T) {
	h := NewHealthStatus()
	snap := h.Snapshot()
	require.Equal(t, false, snap["collecting"])
	require.NotContains(t, snap, "last_sample_at")

	h.SetCollecting(true)
	h.MarkSample(time.Now().UTC())
	h.MarkSample(time.Now().UTC())
	h.MarkFetchError()

	snap = h.Snapshot()
	require.Equal(t, true, snap["collecting"])
	require.Equal(t, int64(2), snap["samples"])
	require.Equal(t, int64(1), snap["fetch_errors"])
	require.Contains(t, snap, "last_sample_at")
}
