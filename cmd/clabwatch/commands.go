package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"clabwatch/internal/agent"
	"clabwatch/internal/clab"
	"clabwatch/internal/mcast"
)

func runChartRoutes(args []string) error {
	fs := flag.NewFlagSet("chart-routes", flag.ExitOnError)
	inventory := fs.String("c", "", "inventory file (yaml)")
	targets := fs.String("t", "", "comma-separated device targets (default: containerlab discovery)")
	username := fs.String("u", "", "gNMI username")
	password := fs.String("p", "", "gNMI password")
	ni := fs.String("n", "", "network instance")
	families := fs.String("f", "", "comma-separated address families")
	duration := fs.Duration("d", 0, "collection duration")
	interval := fs.Duration("i", 0, "sampling interval")
	startValues := fs.String("s", "", "comma-separated start route values, one per family")
	endValues := fs.String("e", "", "comma-separated end route values, one per family")
	output := fs.String("o", "", "chart data filename prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*inventory, *targets)
	if err != nil {
		return err
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *password != "" {
		cfg.Password = *password
	}
	if *ni != "" {
		cfg.NetworkInstance = *ni
	}
	if *families != "" {
		cfg.Families = splitList(*families)
	}
	if *duration > 0 {
		cfg.Duration = *duration
	}
	if *interval > 0 {
		cfg.Interval = *interval
		cfg.FetchTimeout = *interval
	}
	if *output != "" {
		cfg.OutputPrefix = *output
	}
	if err := cfg.ParseThresholdLists(*startValues, *endValues); err != nil {
		return err
	}

	ctx := context.Background()
	if err := discoverDevices(ctx, cfg); err != nil {
		return err
	}

	a, err := agent.New(cfg, agent.BuildLogger(cfg))
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func runCheckBGP(args []string) error {
	fs := flag.NewFlagSet("check-bgp", flag.ExitOnError)
	inventory := fs.String("c", "", "inventory file (yaml)")
	targets := fs.String("t", "", "comma-separated device targets (default: containerlab discovery)")
	username := fs.String("u", "", "gNMI username")
	password := fs.String("p", "", "gNMI password")
	ni := fs.String("ni", "*", `network instance name ("*" for all)`)
	timeout := fs.Duration("timeout", 30*time.Second, "overall poll timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*inventory, *targets)
	if err != nil {
		return err
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *password != "" {
		cfg.Password = *password
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := discoverDevices(ctx, cfg); err != nil {
		return err
	}

	a, err := agent.New(cfg, agent.BuildLogger(cfg))
	if err != nil {
		return err
	}
	sum, err := a.CheckBGP(ctx, *ni)
	if err != nil {
		return err
	}
	if !sum.Healthy() {
		os.Exit(1)
	}
	return nil
}

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	all := fs.Bool("all", false, "list every container, not just SR Linux nodes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig("", "")
	if err != nil {
		return err
	}
	logger := agent.BuildLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var nodes []clab.Node
	if *all {
		out, err := clab.Inspect(ctx)
		if err != nil {
			return err
		}
		nodes, err = clab.ParseInspect(out)
		if err != nil {
			return err
		}
	} else {
		nodes, err = clab.Discover(ctx, logger)
		if err != nil {
			return err
		}
	}

	if len(nodes) == 0 {
		fmt.Println("no nodes found")
		os.Exit(1)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSTATE\tMGMT IPV4")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.Name, n.Kind, n.State, n.MgmtIPv4)
	}
	return tw.Flush()
}

func runSendMcast(args []string) error {
	fs := flag.NewFlagSet("send-mcast", flag.ExitOnError)
	group := fs.String("g", "239.0.0.1", "multicast group address")
	port := fs.Int("port", 5000, "destination UDP port")
	source := fs.String("src", "", "source IP address to bind")
	ttl := fs.Int("ttl", 64, "multicast TTL")
	count := fs.Int("count", 30, "number of packets")
	interval := fs.Duration("i", time.Second, "inter-packet interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig("", "")
	if err != nil {
		return err
	}
	sender, err := mcast.NewSender(mcast.Config{
		Group:    *group,
		Port:     *port,
		Source:   *source,
		TTL:      *ttl,
		Count:    *count,
		Interval: *interval,
	}, agent.BuildLogger(cfg))
	if err != nil {
		return err
	}
	return sender.Run(context.Background())
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
