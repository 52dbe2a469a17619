package gnmi

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"clabwatch/internal/model"
)

// SR Linux reports afi-safi-name with the srl_nokia-common module prefix;
// comparisons happen on the unprefixed form.
func trimModulePrefix(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// RouteStatsByFamily reads the BGP afi-safi container of one network instance
// and returns {received, active} route counts per requested address family.
// Families absent from the device report zero counts, so a family that never
// came up still charts as a flat zero line instead of a missing column.
func (c *Client) RouteStatsByFamily(ctx context.Context, networkInstance string, families []string) (map[string]model.RouteStats, error) {
	path := fmt.Sprintf("/network-instance[name=%s]/protocols/bgp/afi-safi", networkInstance)
	updates, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.RouteStats, len(families))
	for _, f := range families {
		out[trimModulePrefix(f)] = model.RouteStats{}
	}
	for _, u := range updates {
		addAfiSafiStats(u.JSON, out)
	}
	return out, nil
}

// addAfiSafiStats accumulates counts from one JSON_IETF payload into stats.
// The payload shape varies with the requested path depth (a bare afi-safi
// entry, a list of them, or an enclosing container), so entries are located
// by their afi-safi-name leaf rather than by fixed nesting. Counts may arrive
// as JSON numbers or as decimal strings; gjson coerces both.
func addAfiSafiStats(payload []byte, stats map[string]model.RouteStats) {
	eachAfiSafi(gjson.ParseBytes(payload), func(entry gjson.Result) {
		family := trimModulePrefix(entry.Get("afi-safi-name").String())
		st, ok := stats[family]
		if !ok {
			return
		}
		st.Received += entry.Get("received-routes").Uint()
		st.Active += entry.Get("active-routes").Uint()
		stats[family] = st
	})
}

func eachAfiSafi(v gjson.Result, fn func(entry gjson.Result)) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			eachAfiSafi(item, fn)
			return true
		})
	case v.IsObject():
		if v.Get("afi-safi-name").Exists() {
			fn(v)
			return
		}
		v.ForEach(func(_, child gjson.Result) bool {
			eachAfiSafi(child, fn)
			return true
		})
	}
}

// RouteMetrics returns the sampler metric ids for a family list: one total
// and one active counter per family.
func RouteMetrics(families []string) []string {
	metrics := make([]string, 0, 2*len(families))
	for _, f := range families {
		f = trimModulePrefix(f)
		metrics = append(metrics, f+"/total", f+"/active")
	}
	return metrics
}

// TotalMetric names the received-routes counter of a family, the series
// convergence thresholds apply to.
func TotalMetric(family string) string {
	return trimModulePrefix(family) + "/total"
}

// RouteCountFetch adapts this client into a sampler fetch function. Metric
// ids follow the RouteMetrics naming: "<family>/total" or "<family>/active".
func (c *Client) RouteCountFetch(networkInstance string) func(ctx context.Context, metric string) (uint64, error) {
	return func(ctx context.Context, metric string) (uint64, error) {
		family, kind, ok := strings.Cut(metric, "/")
		if !ok {
			return 0, fmt.Errorf("malformed route metric id %q", metric)
		}
		stats, err := c.RouteStatsByFamily(ctx, networkInstance, []string{family})
		if err != nil {
			return 0, err
		}
		st := stats[family]
		switch kind {
		case "total":
			return st.Received, nil
		case "active":
			return st.Active, nil
		default:
			return 0, fmt.Errorf("unknown route metric kind %q", kind)
		}
	}
}
