// clabwatch validates SR Linux EVPN labs running under containerlab:
// route-convergence charting, BGP session checks, node discovery, and
// multicast test traffic.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"clabwatch/internal/agent"
	"clabwatch/internal/clab"
	"clabwatch/internal/config"
	"clabwatch/internal/model"
)

const usage = `usage: clabwatch <command> [flags]

commands:
  chart-routes  sample BGP route counts over gNMI and compute convergence
  check-bgp     poll BGP neighbor session state across the fabric
  discover      list SR Linux nodes found via containerlab inspect
  send-mcast    send UDP multicast test traffic

run 'clabwatch <command> -h' for command flags`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "chart-routes":
		err = runChartRoutes(os.Args[2:])
	case "check-bgp":
		err = runCheckBGP(os.Args[2:])
	case "discover":
		err = runDiscover(os.Args[2:])
	case "send-mcast":
		err = runSendMcast(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("clabwatch %s: %v", os.Args[1], err)
	}
}

// loadConfig builds the run config: env defaults, optional inventory file,
// then flag overrides.
func loadConfig(inventory, targets string) (*config.Config, error) {
	cfg, err := config.Load(inventory)
	if err != nil {
		return nil, err
	}
	if targets != "" {
		cfg.ParseDeviceList(targets)
	}
	return cfg, nil
}

// discoverDevices fills the device list from containerlab when neither flags
// nor the inventory named any targets.
func discoverDevices(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Devices) > 0 {
		return nil
	}
	logger := agent.BuildLogger(cfg)
	nodes, err := clab.Discover(ctx, logger)
	if err != nil {
		return fmt.Errorf("device discovery: %w", err)
	}
	for _, n := range nodes {
		cfg.Devices = append(cfg.Devices, model.Device{Name: n.Name, Address: n.MgmtIPv4, Port: cfg.GNMIPort})
	}
	return nil
}
