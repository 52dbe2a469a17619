// Package report renders collection results for humans and for chart
// tooling. Formatting only; all numbers are computed upstream.
package report

import (
	"clabwatch/internal/model"
)

// DeviceResult pairs one device's recorded series with the convergence
// results derived from them.
type DeviceResult struct {
	Device  string
	Series  []*model.Series
	Results []model.ConvergenceResult
}

type Reporter interface {
	Render(results []DeviceResult) error
}

// ANSI codes, matching the rest of the lab tooling's terminal output.
const (
	ansiGreen  = "\033[92m"
	ansiRed    = "\033[91m"
	ansiYellow = "\033[93m"
	ansiBold   = "\033[1m"
	ansiReset  = "\033[0m"
)

type palette struct {
	enabled bool
}

func (p palette) paint(code, s string) string {
	if !p.enabled {
		return s
	}
	return code + s + ansiReset
}

func (p palette) status(st model.ConvergenceStatus) string {
	switch st {
	case model.StatusFound:
		return p.paint(ansiGreen, string(st))
	case model.StatusNoData:
		return p.paint(ansiYellow, string(st))
	default:
		return p.paint(ansiRed, string(st))
	}
}
