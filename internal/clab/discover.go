// Package clab discovers lab nodes by shelling out to containerlab.
// Orchestration stays with containerlab itself; this only parses its inspect
// output.
package clab

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"
)

const srlinuxKind = "nokia_srlinux"

// Node is one container reported by containerlab inspect.
type Node struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Image    string `json:"image"`
	State    string `json:"state"`
	MgmtIPv4 string `json:"mgmt_ipv4"`
}

func (n Node) SRLinux() bool {
	return n.Kind == srlinuxKind
}

// InspectFunc runs containerlab inspect and returns its JSON output.
// Injectable for tests.
type InspectFunc func(ctx context.Context) ([]byte, error)

// Inspect runs containerlab inspect and returns its raw JSON output.
func Inspect(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "containerlab", "inspect", "--all", "--format", "json")
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("containerlab inspect: %w: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("containerlab inspect: %w", err)
	}
	return out, nil
}

// Discover lists SR Linux nodes in the running lab.
func Discover(ctx context.Context, logger *slog.Logger) ([]Node, error) {
	return DiscoverWith(ctx, logger, Inspect)
}

func DiscoverWith(ctx context.Context, logger *slog.Logger, inspect InspectFunc) ([]Node, error) {
	out, err := inspect(ctx)
	if err != nil {
		return nil, err
	}
	nodes, err := ParseInspect(out)
	if err != nil {
		return nil, err
	}

	var srl []Node
	for _, n := range nodes {
		if n.SRLinux() {
			srl = append(srl, n)
		}
	}
	logger.Info("containerlab discovery finished", "nodes", len(nodes), "srlinux", len(srl))
	return srl, nil
}

// ParseInspect handles both inspect output shapes: the newer
// {"lab-name": [nodes...]} map and the older flat {"containers": [nodes...]}
// list.
func ParseInspect(data []byte) ([]Node, error) {
	root := gjson.ParseBytes(data)
	if !root.IsObject() && !root.IsArray() {
		return nil, fmt.Errorf("containerlab inspect: unexpected output %q", truncate(data, 80))
	}

	var nodes []Node
	appendNodes := func(list gjson.Result) {
		list.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				return true
			}
			nodes = append(nodes, Node{
				Name:     item.Get("name").String(),
				Kind:     item.Get("kind").String(),
				Image:    item.Get("image").String(),
				State:    item.Get("state").String(),
				MgmtIPv4: stripPrefixLen(item.Get("ipv4_address").String()),
			})
			return true
		})
	}

	if containers := root.Get("containers"); containers.IsArray() {
		appendNodes(containers)
		return nodes, nil
	}
	root.ForEach(func(_, lab gjson.Result) bool {
		if lab.IsArray() {
			appendNodes(lab)
		}
		return true
	})
	return nodes, nil
}

// stripPrefixLen turns "172.20.20.2/24" into "172.20.20.2".
func stripPrefixLen(addr string) string {
	host, _, _ := strings.Cut(addr, "/")
	return host
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
