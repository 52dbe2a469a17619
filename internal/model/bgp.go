package model

import "strings"

// BGPNeighbor is one peer's state as read from
// network-instance/protocols/bgp/neighbor.
type BGPNeighbor struct {
	NetworkInstance string `json:"network_instance"`
	PeerAddress     string `json:"peer_address"`
	PeerGroup       string `json:"peer_group"`
	PeerType        string `json:"peer_type"`
	SessionState    string `json:"session_state"`
}

func (n BGPNeighbor) Established() bool {
	return strings.EqualFold(n.SessionState, "established")
}

// BGPDeviceReport is the result of polling one device's BGP neighbors.
// Err is set when the device could not be queried at all.
type BGPDeviceReport struct {
	Device    string        `json:"device"`
	Neighbors []BGPNeighbor `json:"neighbors"`
	Err       error         `json:"-"`
}

func (r BGPDeviceReport) Established() int {
	n := 0
	for _, nb := range r.Neighbors {
		if nb.Established() {
			n++
		}
	}
	return n
}

// BGPSummary aggregates neighbor state across the fabric.
type BGPSummary struct {
	Devices     int `json:"devices"`
	Unreachable int `json:"unreachable"`
	Peers       int `json:"peers"`
	Established int `json:"established"`
}

func (s BGPSummary) Down() int {
	return s.Peers - s.Established
}

// Healthy reports whether every device answered and every peer is established.
func (s BGPSummary) Healthy() bool {
	return s.Unreachable == 0 && s.Down() == 0
}

func Summarize(reports []BGPDeviceReport) BGPSummary {
	var sum BGPSummary
	sum.Devices = len(reports)
	for _, r := range reports {
		if r.Err != nil {
			sum.Unreachable++
			continue
		}
		sum.Peers += len(r.Neighbors)
		sum.Established += r.Established()
	}
	return sum
}
