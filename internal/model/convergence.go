package model

type ConvergenceStatus string

const (
	// StatusFound means both thresholds were crossed and a time was derived.
	StatusFound ConvergenceStatus = "FOUND"
	// StatusStartNotReached means no sample ever reached the start value.
	StatusStartNotReached ConvergenceStatus = "START_NOT_REACHED"
	// StatusEndNotReached means the start value was reached but the end value
	// was never seen at or after it.
	StatusEndNotReached ConvergenceStatus = "END_NOT_REACHED"
	// StatusInvalidRange means end_value <= start_value, a caller
	// configuration error.
	StatusInvalidRange ConvergenceStatus = "INVALID_RANGE"
	// StatusNoData means the run sampled the metric but every fetch failed, so
	// there is no series to analyze.
	StatusNoData ConvergenceStatus = "NO_DATA"
)

// ConvergenceResult is derived from a frozen Series and a threshold pair.
// Optional fields are nil when the corresponding crossing was not found.
type ConvergenceResult struct {
	Device     string `json:"device"`
	Metric     string `json:"metric"`
	StartValue uint64 `json:"start_value"`
	EndValue   uint64 `json:"end_value"`

	StartTime       *float64 `json:"start_time,omitempty"`
	EndTime         *float64 `json:"end_time,omitempty"`
	ConvergenceTime *float64 `json:"convergence_time,omitempty"`
	Rate            *float64 `json:"rate,omitempty"`

	Status ConvergenceStatus `json:"status"`
	Note   string            `json:"note,omitempty"`
}
