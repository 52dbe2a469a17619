package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"clabwatch/internal/model"
)

// TableReporter writes an aligned text report: per-device sampling summary
// followed by the convergence table.
type TableReporter struct {
	w   io.Writer
	pal palette
}

func NewTableReporter(w io.Writer, color bool) *TableReporter {
	return &TableReporter{w: w, pal: palette{enabled: color}}
}

func (r *TableReporter) Render(results []DeviceResult) error {
	for _, dr := range results {
		if err := r.renderDevice(dr); err != nil {
			return err
		}
	}
	return nil
}

func (r *TableReporter) renderDevice(dr DeviceResult) error {
	fmt.Fprintf(r.w, "\n%s\n", r.pal.paint(ansiBold, "Device: "+dr.Device))

	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tSAMPLES\tGAPS\tLAST VALUE")
	for _, s := range dr.Series {
		last := "-"
		if v, ok := s.Last(); ok {
			last = fmt.Sprintf("%d", v.Value)
		}
		gaps := fmt.Sprintf("%d", s.Gaps)
		if s.Gaps > 0 {
			gaps = r.pal.paint(ansiYellow, gaps)
		}
		if s.NoData() {
			gaps = r.pal.paint(ansiRed, fmt.Sprintf("%d (no data)", s.Gaps))
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Metric, len(s.Samples), gaps, last)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(dr.Results) == 0 {
		return nil
	}
	fmt.Fprintln(r.w)
	tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tRANGE\tSTART\tEND\tCONV TIME\tRATE\tSTATUS")
	for _, res := range dr.Results {
		fmt.Fprintf(tw, "%s\t%d -> %d\t%s\t%s\t%s\t%s\t%s\n",
			res.Metric,
			res.StartValue, res.EndValue,
			seconds(res.StartTime),
			seconds(res.EndTime),
			seconds(res.ConvergenceTime),
			rate(res.Rate, res.Note),
			r.pal.status(res.Status),
		)
	}
	return tw.Flush()
}

func seconds(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fs", *v)
}

func rate(v *float64, note string) string {
	if v == nil {
		if note != "" {
			return "undefined"
		}
		return "-"
	}
	return fmt.Sprintf("%.2f routes/s", *v)
}

// RenderBGP writes the per-neighbor listing and the fabric summary, returning
// the summary so callers can derive an exit code.
func (r *TableReporter) RenderBGP(reports []model.BGPDeviceReport) (model.BGPSummary, error) {
	for _, rep := range reports {
		fmt.Fprintf(r.w, "\n%s\n", r.pal.paint(ansiBold, "Router: "+rep.Device))
		if rep.Err != nil {
			fmt.Fprintf(r.w, "  %s\n", r.pal.paint(ansiRed, "error: "+rep.Err.Error()))
			continue
		}
		if len(rep.Neighbors) == 0 {
			fmt.Fprintln(r.w, "  no BGP neighbors configured")
			continue
		}

		tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  INSTANCE\tPEER\tGROUP\tTYPE\tSTATE")
		for _, n := range rep.Neighbors {
			state := r.pal.paint(ansiRed, n.SessionState)
			if n.Established() {
				state = r.pal.paint(ansiGreen, n.SessionState)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
				n.NetworkInstance, n.PeerAddress, n.PeerGroup, n.PeerType, state)
		}
		if err := tw.Flush(); err != nil {
			return model.BGPSummary{}, err
		}
		fmt.Fprintf(r.w, "  total: %d, established: %d\n", len(rep.Neighbors), rep.Established())
	}

	sum := model.Summarize(reports)
	fmt.Fprintf(r.w, "\n%s\n", r.pal.paint(ansiBold, "FABRIC BGP HEALTH SUMMARY"))
	fmt.Fprintf(r.w, "devices polled:    %d\n", sum.Devices)
	if sum.Unreachable > 0 {
		fmt.Fprintf(r.w, "unreachable:       %s\n", r.pal.paint(ansiRed, fmt.Sprintf("%d", sum.Unreachable)))
	}
	fmt.Fprintf(r.w, "peers found:       %d\n", sum.Peers)
	fmt.Fprintf(r.w, "peers established: %s\n", r.pal.paint(ansiGreen, fmt.Sprintf("%d", sum.Established)))
	if down := sum.Down(); down > 0 {
		fmt.Fprintf(r.w, "peers down:        %s\n", r.pal.paint(ansiRed, fmt.Sprintf("%d", down)))
	} else {
		fmt.Fprintf(r.w, "peers down:        %s\n", r.pal.paint(ansiGreen, "0 (all established)"))
	}
	return sum, nil
}
