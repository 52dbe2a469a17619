package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSVReporter dumps raw series as chart data, one file per device in long
// format (metric,elapsed_seconds,value). Long format survives per-metric
// gaps, which a wide elapsed-time-indexed sheet cannot represent.
type CSVReporter struct {
	logger *slog.Logger
	dir    string
	prefix string
	now    func() time.Time
}

func NewCSVReporter(dir, prefix string, logger *slog.Logger) *CSVReporter {
	if prefix == "" {
		prefix = "route_stats"
	}
	return &CSVReporter{logger: logger, dir: dir, prefix: prefix, now: time.Now}
}

func (r *CSVReporter) Render(results []DeviceResult) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create chart data dir %s: %w", r.dir, err)
	}
	stamp := r.now().Unix()
	for _, dr := range results {
		name := fmt.Sprintf("%s_%s_%d.csv", r.prefix, dr.Device, stamp)
		path := filepath.Join(r.dir, name)
		if err := r.writeDevice(path, dr); err != nil {
			return err
		}
		r.logger.Info("chart data written", "device", dr.Device, "path", path)
	}
	return nil
}

func (r *CSVReporter) writeDevice(path string, dr DeviceResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"metric", "elapsed_seconds", "value"}); err != nil {
		return err
	}
	for _, s := range dr.Series {
		for _, sample := range s.Samples {
			rec := []string{
				s.Metric,
				strconv.FormatFloat(sample.ElapsedSeconds, 'f', 2, 64),
				strconv.FormatUint(sample.Value, 10),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
