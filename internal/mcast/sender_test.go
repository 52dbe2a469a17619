package mcast

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSenderValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid group", cfg: Config{Group: "239.0.0.1"}, wantErr: false},
		{name: "unicast group", cfg: Config{Group: "10.0.0.1"}, wantErr: true},
		{name: "not an address", cfg: Config{Group: "not-an-ip"}, wantErr: true},
		{name: "bad source", cfg: Config{Group: "239.0.0.1", Source: "bogus"}, wantErr: true},
		{name: "bad port", cfg: Config{Group: "239.0.0.1", Port: 70000}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSender(tt.cfg, testLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Group: "239.0.0.1"}
	cfg.applyDefaults()

	require.Equal(t, 5000, cfg.Port)
	require.Equal(t, 64, cfg.TTL)
	require.Equal(t, 30, cfg.Count)
	require.Equal(t, time.Second, cfg.Interval)
}

func TestPayloadFormat(t *testing.T) {
	at := time.Date(2026, 8, 24, 14, 3, 5, 0, time.UTC)
	got := string(Payload(7, "10.255.80.2", at))
	require.Equal(t, "packet 007 from 10.255.80.2 at 14:03:05", got)
}
