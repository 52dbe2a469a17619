package model

import (
	"net"
	"strconv"
)

// Device is one SR Linux target, either from the inventory file or discovered
// through containerlab.
type Device struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
}

// Target returns the host:port gNMI dial target. Address falls back to Name,
// which resolves through container DNS in a containerlab setup.
func (d Device) Target() string {
	host := d.Address
	if host == "" {
		host = d.Name
	}
	return net.JoinHostPort(host, strconv.Itoa(d.Port))
}

// RouteStats is the per-address-family route count pair reported by the BGP
// afi-safi container.
type RouteStats struct {
	Received uint64 `json:"received"`
	Active   uint64 `json:"active"`
}
