// Package convergence derives threshold-crossing times from a recorded route
// count series: how long a counter took to climb from a start value to an end
// value, and the resulting rate.
package convergence

import "clabwatch/internal/model"

const noteSubTick = "rate undefined (sub-tick convergence)"

// Analyze scans a frozen series for the first sample at or above startValue
// and the first sample at or after it reaching endValue. It is pure and
// deterministic: the same series and thresholds always produce the same
// result, and no I/O happens here.
//
// Values are not assumed monotonic; route flaps between samples are fine.
func Analyze(series *model.Series, startValue, endValue uint64) model.ConvergenceResult {
	res := model.ConvergenceResult{
		StartValue: startValue,
		EndValue:   endValue,
	}
	if series != nil {
		res.Device = series.Device
		res.Metric = series.Metric
	}

	if endValue <= startValue {
		res.Status = model.StatusInvalidRange
		return res
	}
	if series != nil && series.NoData() {
		res.Status = model.StatusNoData
		return res
	}

	startIdx := -1
	if series != nil {
		for i, s := range series.Samples {
			if s.Value >= startValue {
				startIdx = i
				break
			}
		}
	}
	if startIdx < 0 {
		res.Status = model.StatusStartNotReached
		return res
	}
	startTime := series.Samples[startIdx].ElapsedSeconds
	res.StartTime = &startTime

	endIdx := -1
	for i := startIdx; i < len(series.Samples); i++ {
		if series.Samples[i].Value >= endValue {
			endIdx = i
			break
		}
	}
	if endIdx < 0 {
		res.Status = model.StatusEndNotReached
		return res
	}
	endTime := series.Samples[endIdx].ElapsedSeconds
	res.EndTime = &endTime

	// Zero is legal: both thresholds crossed within one tick. That only means
	// convergence was faster than the sampling rate can resolve, so it must
	// not be rounded up to a minimum positive value.
	convTime := endTime - startTime
	res.ConvergenceTime = &convTime

	if convTime > 0 {
		rate := float64(endValue-startValue) / convTime
		res.Rate = &rate
	} else {
		res.Note = noteSubTick
	}
	res.Status = model.StatusFound
	return res
}
