package main

import (
	"strings"

	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ergo.services/actor"
	"ergo.services/actor/gen"
	"ergo.services/actor/node"
)

// options defines the flags shared by all the commands.
type options struct {
	config   string
	logLevel string
	metrics  bool
}

func (o *options) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.config, "config", "", "node options file (TOML)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "node log level (overrides the config)")
	cmd.PersistentFlags().BoolVar(&o.metrics, "metrics", false, "print the node metrics before exit")
}

// run starts the node, runs the scenario and stops the node.
func (o *options) run(cmd *cobra.Command, scenario func(gen.Node) error) error {
	var nodeOptions node.Options
	if o.config != "" {
		loaded, err := node.LoadOptions(o.config)
		if err != nil {
			return err
		}
		nodeOptions = loaded
	}
	if o.logLevel != "" {
		if err := nodeOptions.LogLevel.UnmarshalText([]byte(o.logLevel)); err != nil {
			return errors.Annotate(err, "flag --log-level")
		}
	}

	registry := prometheus.NewRegistry()
	node.InitMetrics(registry)

	n, err := actor.StartNode(nodeOptions.Name, nodeOptions)
	if err != nil {
		return err
	}
	defer n.Stop()

	if err := scenario(n); err != nil {
		return err
	}
	if o.metrics {
		return printMetrics(cmd, registry)
	}
	return nil
}

func printMetrics(cmd *cobra.Command, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return errors.Trace(err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			cmd.Printf("%s{%s} %v\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:          "agentdemo",
		Short:        "Run the demo scenarios of the actor runtime",
		SilenceUsage: true,
	}
	o.addFlags(cmd)
	cmd.AddCommand(
		newCmdCounter(o),
		newCmdCascade(o),
		newCmdKV(o),
	)
	return cmd
}
