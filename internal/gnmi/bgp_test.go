package gnmi

import (
	"errors"
	"testing"

	gpb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/stretchr/testify/require"

	"clabwatch/internal/model"
)

func TestNeighborsFromJSONList(t *testing.T) {
	payload := []byte(`[
		{"peer-address": "10.0.0.1", "peer-group": "spines", "peer-type": "srl_nokia-bgp:ebgp", "session-state": "established"},
		{"peer-address": "10.0.0.2", "peer-group": "spines", "peer-type": "ebgp", "session-state": "active"}
	]`)

	got := neighborsFromJSON(payload, "default")

	require.Len(t, got, 2)
	require.Equal(t, model.BGPNeighbor{
		NetworkInstance: "default",
		PeerAddress:     "10.0.0.1",
		PeerGroup:       "spines",
		PeerType:        "ebgp",
		SessionState:    "established",
	}, got[0])
	require.True(t, got[0].Established())
	require.False(t, got[1].Established())
}

func TestNeighborsFromJSONNestedInstances(t *testing.T) {
	// Wildcard queries can return whole network-instance subtrees with
	// module-prefixed container keys and single neighbors not wrapped in a
	// list.
	payload := []byte(`{
		"srl_nokia-network-instance:network-instance": [
			{
				"name": "default",
				"protocols": {
					"srl_nokia-bgp:bgp": {
						"neighbor": [
							{"peer-address": "10.0.0.1", "session-state": "established"}
						]
					}
				}
			},
			{
				"name": "vrf-red",
				"protocols": {
					"bgp": {
						"neighbor": {"peer-address": "192.168.1.1", "session-state": "connect"}
					}
				}
			}
		]
	}`)

	got := neighborsFromJSON(payload, "")

	require.Len(t, got, 2)
	require.Equal(t, "default", got[0].NetworkInstance)
	require.Equal(t, "10.0.0.1", got[0].PeerAddress)
	require.Equal(t, "vrf-red", got[1].NetworkInstance)
	require.Equal(t, "connect", got[1].SessionState)
}

func TestNeighborsFromJSONEmpty(t *testing.T) {
	require.Empty(t, neighborsFromJSON([]byte(`{}`), "default"))
	require.Empty(t, neighborsFromJSON([]byte(`{"protocols": {"bgp": {}}}`), "default"))
}

func TestPathKey(t *testing.T) {
	p := &gpb.Path{Elem: []*gpb.PathElem{
		{Name: "network-instance", Key: map[string]string{"name": "default"}},
		{Name: "protocols"},
		{Name: "bgp"},
	}}

	require.Equal(t, "default", PathKey(p, "network-instance", "name"))
	require.Empty(t, PathKey(p, "interface", "name"))
	require.Empty(t, PathKey(nil, "network-instance", "name"))
}

func TestJoinPaths(t *testing.T) {
	prefix := &gpb.Path{Elem: []*gpb.PathElem{
		{Name: "network-instance", Key: map[string]string{"name": "default"}},
	}}
	path := &gpb.Path{Elem: []*gpb.PathElem{
		{Name: "protocols"},
		{Name: "bgp"},
	}}

	joined := joinPaths(prefix, path)
	require.Len(t, joined.GetElem(), 3)
	require.Equal(t, "default", PathKey(joined, "network-instance", "name"))

	require.Equal(t, path, joinPaths(nil, path))
}

func TestSummarize(t *testing.T) {
	reports := []model.BGPDeviceReport{
		{Device: "leaf1", Neighbors: []model.BGPNeighbor{
			{PeerAddress: "10.0.0.1", SessionState: "established"},
			{PeerAddress: "10.0.0.2", SessionState: "established"},
		}},
		{Device: "leaf2", Neighbors: []model.BGPNeighbor{
			{PeerAddress: "10.0.0.3", SessionState: "idle"},
		}},
		{Device: "leaf3", Err: errors.New("unreachable")},
	}

	sum := model.Summarize(reports)

	require.Equal(t, 3, sum.Devices)
	require.Equal(t, 1, sum.Unreachable)
	require.Equal(t, 3, sum.Peers)
	require.Equal(t, 2, sum.Established)
	require.Equal(t, 1, sum.Down())
	require.False(t, sum.Healthy())
}
