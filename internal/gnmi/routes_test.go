package gnmi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clabwatch/internal/model"
)

func TestAddAfiSafiStatsFlatList(t *testing.T) {
	payload := []byte(`[
		{"afi-safi-name": "srl_nokia-common:ipv4-unicast", "received-routes": 1200, "active-routes": 1100},
		{"afi-safi-name": "srl_nokia-common:ipv6-unicast", "received-routes": 300, "active-routes": 280},
		{"afi-safi-name": "srl_nokia-common:evpn", "received-routes": 50, "active-routes": 50}
	]`)

	stats := map[string]model.RouteStats{
		"ipv4-unicast": {},
		"ipv6-unicast": {},
	}
	addAfiSafiStats(payload, stats)

	require.Equal(t, model.RouteStats{Received: 1200, Active: 1100}, stats["ipv4-unicast"])
	require.Equal(t, model.RouteStats{Received: 300, Active: 280}, stats["ipv6-unicast"])
	_, ok := stats["evpn"]
	require.False(t, ok, "unrequested family must not appear")
}

func TestAddAfiSafiStatsNestedContainerAndStringCounts(t *testing.T) {
	// Depending on path depth SR Linux wraps the list in the bgp container,
	// and uint64 leaves arrive as strings.
	payload := []byte(`{
		"srl_nokia-bgp:bgp": {
			"afi-safi": [
				{"afi-safi-name": "ipv4-unicast", "received-routes": "9500", "active-routes": "9000"}
			]
		}
	}`)

	stats := map[string]model.RouteStats{"ipv4-unicast": {}}
	addAfiSafiStats(payload, stats)

	require.Equal(t, model.RouteStats{Received: 9500, Active: 9000}, stats["ipv4-unicast"])
}

func TestAddAfiSafiStatsAccumulates(t *testing.T) {
	stats := map[string]model.RouteStats{"evpn": {}}
	addAfiSafiStats([]byte(`{"afi-safi-name": "evpn", "received-routes": 10, "active-routes": 8}`), stats)
	addAfiSafiStats([]byte(`{"afi-safi-name": "srl_nokia-common:evpn", "received-routes": 5, "active-routes": 5}`), stats)

	require.Equal(t, model.RouteStats{Received: 15, Active: 13}, stats["evpn"])
}

func TestAddAfiSafiStatsMissingCounters(t *testing.T) {
	stats := map[string]model.RouteStats{"ipv4-unicast": {}}
	addAfiSafiStats([]byte(`[{"afi-safi-name": "ipv4-unicast", "admin-state": "enable"}]`), stats)

	require.Equal(t, model.RouteStats{}, stats["ipv4-unicast"])
}

func TestRouteMetrics(t *testing.T) {
	metrics := RouteMetrics([]string{"ipv4-unicast", "srl_nokia-common:evpn"})
	require.Equal(t, []string{
		"ipv4-unicast/total", "ipv4-unicast/active",
		"evpn/total", "evpn/active",
	}, metrics)

	require.Equal(t, "evpn/total", TotalMetric("srl_nokia-common:evpn"))
}

func TestTrimModulePrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"srl_nokia-common:ipv4-unicast", "ipv4-unicast"},
		{"ipv4-unicast", "ipv4-unicast"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, trimModulePrefix(tt.in))
	}
}
