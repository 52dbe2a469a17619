package gnmi

import (
	"context"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"clabwatch/internal/model"
)

// BGPNeighbors reads peer state for one network instance, or all of them when
// networkInstance is "*". Results are sorted by instance then peer address so
// repeated polls render stably.
func (c *Client) BGPNeighbors(ctx context.Context, networkInstance string) ([]model.BGPNeighbor, error) {
	path := fmt.Sprintf("/network-instance[name=%s]/protocols/bgp/neighbor", networkInstance)
	updates, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var neighbors []model.BGPNeighbor
	for _, u := range updates {
		// The notification path usually carries the instance name; inside the
		// payload a network-instance object's name leaf overrides it.
		ni := PathKey(u.Path, "network-instance", "name")
		if ni == "" && networkInstance != "*" {
			ni = networkInstance
		}
		neighbors = append(neighbors, neighborsFromJSON(u.JSON, ni)...)
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].NetworkInstance != neighbors[j].NetworkInstance {
			return neighbors[i].NetworkInstance < neighbors[j].NetworkInstance
		}
		return neighbors[i].PeerAddress < neighbors[j].PeerAddress
	})
	return neighbors, nil
}

// neighborsFromJSON walks one JSON_IETF payload collecting neighbor entries.
// Container keys may carry module prefixes and lists may collapse to a single
// object, so entries are recognized by their peer-address leaf and the
// instance name is picked up from any enclosing object's name leaf.
func neighborsFromJSON(payload []byte, defaultNI string) []model.BGPNeighbor {
	var out []model.BGPNeighbor
	collectNeighbors(gjson.ParseBytes(payload), defaultNI, &out)
	return out
}

func collectNeighbors(v gjson.Result, ni string, out *[]model.BGPNeighbor) {
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			collectNeighbors(item, ni, out)
			return true
		})
	case v.IsObject():
		if v.Get("peer-address").Exists() {
			*out = append(*out, model.BGPNeighbor{
				NetworkInstance: ni,
				PeerAddress:     v.Get("peer-address").String(),
				PeerGroup:       v.Get("peer-group").String(),
				PeerType:        trimModulePrefix(v.Get("peer-type").String()),
				SessionState:    trimModulePrefix(v.Get("session-state").String()),
			})
			return
		}
		if name := v.Get("name"); name.Type == gjson.String {
			ni = name.String()
		}
		v.ForEach(func(_, child gjson.Result) bool {
			collectNeighbors(child, ni, out)
			return true
		})
	}
}
