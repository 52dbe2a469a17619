package clab

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const inspectByLab = `{
	"evpn-poc": [
		{"name": "clab-evpn-poc-leaf1", "kind": "nokia_srlinux", "image": "ghcr.io/nokia/srlinux:24.10", "state": "running", "ipv4_address": "172.20.20.2/24"},
		{"name": "clab-evpn-poc-leaf2", "kind": "nokia_srlinux", "image": "ghcr.io/nokia/srlinux:24.10", "state": "running", "ipv4_address": "172.20.20.3/24"},
		{"name": "clab-evpn-poc-client1", "kind": "linux", "image": "alpine:3", "state": "running", "ipv4_address": "172.20.20.10/24"}
	]
}`

const inspectFlat = `{
	"containers": [
		{"name": "clab-poc-spine1", "kind": "nokia_srlinux", "state": "running", "ipv4_address": "172.20.20.4/24"},
		{"name": "clab-poc-client8", "kind": "linux", "state": "running", "ipv4_address": "172.20.20.11/24"}
	]
}`

func TestParseInspectByLab(t *testing.T) {
	nodes, err := ParseInspect([]byte(inspectByLab))
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	require.Equal(t, "clab-evpn-poc-leaf1", nodes[0].Name)
	require.Equal(t, "172.20.20.2", nodes[0].MgmtIPv4)
	require.True(t, nodes[0].SRLinux())
	require.False(t, nodes[2].SRLinux())
}

func TestParseInspectFlat(t *testing.T) {
	nodes, err := ParseInspect([]byte(inspectFlat))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, "clab-poc-spine1", nodes[0].Name)
}

func TestParseInspectGarbage(t *testing.T) {
	_, err := ParseInspect([]byte("no labs running"))
	require.Error(t, err)
}

func TestDiscoverFiltersSRLinux(t *testing.T) {
	inspect := func(ctx context.Context) ([]byte, error) {
		return []byte(inspectByLab), nil
	}

	nodes, err := DiscoverWith(context.Background(), testLogger(), inspect)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		require.True(t, n.SRLinux())
	}
}

func TestDiscoverInspectFailure(t *testing.T) {
	inspect := func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("containerlab not installed")
	}

	_, err := DiscoverWith(context.Background(), testLogger(), inspect)
	require.Error(t, err)
}
