package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// runProbeListener answers liveness probes during long collections so an
// operator (or CI) can tell a running collection from a hung one without
// interrupting it.
func (a *Agent) runProbeListener(ctx context.Context) error {
	addr := strings.TrimSpace(a.cfg.ProbeListenAddr)
	if addr == "" {
		return fmt.Errorf("empty probe listen address")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen probe endpoint %s: %w", addr, err)
	}
	defer func() { _ = ln.Close() }()

	a.logger.Info("probe endpoint listening", "addr", addr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(acceptErr, net.ErrClosed) {
				return nil
			}
			if ne, ok := acceptErr.(net.Error); ok && ne.Temporary() {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept probe endpoint %s: %w", addr, acceptErr)
		}

		snap := a.health.Snapshot()
		_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
		_, _ = fmt.Fprintf(conn, "clabwatch:ok collecting=%v samples=%v fetch_errors=%v\n",
			snap["collecting"], snap["samples"], snap["fetch_errors"])
		_ = conn.Close()
	}
}

// watchStdin cancels the run when the operator presses ENTER. In
// non-interactive runs stdin is closed and the read fails immediately, which
// is a no-op.
func watchStdin(logger *slog.Logger, stop func()) {
	go func() {
		r := bufio.NewReader(os.Stdin)
		if _, err := r.ReadString('\n'); err == nil {
			logger.Info("operator requested early stop")
			stop()
		}
	}()
}
