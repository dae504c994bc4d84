/*
Copyright 2022 The Katalyst Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package app

import (
	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/kubewharf/katalyst-irqbalance/cmd/katalyst-irqbalance/app/options"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/process"
)

// NewIRQBalanceCommand creates the root command with the balance and
// monitor sub commands.
func NewIRQBalanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "katalyst-irqbalance",
		Short: "Spread hardware interrupt queues over cpu cores",
		Long: `katalyst-irqbalance assigns every matched interrupt queue to the least
loaded core of the least loaded socket and writes the resulting one-hot
smp_affinity masks. Run at most one instance per machine at a time.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewBalanceCommand(), NewMonitorCommand())
	return cmd
}

// NewBalanceCommand creates the balance command; it only reports the plan
// unless --apply is given.
func NewBalanceCommand() *cobra.Command {
	opt := options.NewBalanceOptions()
	fss := &cliflag.NamedFlagSets{}
	opt.AddFlags(fss)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Compute and optionally apply interrupt affinities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := opt.Config()
			if err != nil {
				return err
			}

			deps, err := NewBalanceDeps(conf, cmd.OutOrStdout())
			if err != nil {
				return withSourceHint(conf, err)
			}
			return withSourceHint(conf, RunBalance(conf, deps))
		},
	}
	addFlagSets(cmd, fss)
	return cmd
}

// NewMonitorCommand creates the monitor command.
func NewMonitorCommand() *cobra.Command {
	opt := options.NewMonitorOptions()
	fss := &cliflag.NamedFlagSets{}
	opt.AddFlags(fss)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show live per-cpu interrupt activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := opt.Config()
			if err != nil {
				return err
			}
			return withSourceHint(conf, runMonitorOnTerminal(process.SetupSignalHandler(), conf))
		},
	}
	addFlagSets(cmd, fss)
	return cmd
}

func addFlagSets(cmd *cobra.Command, fss *cliflag.NamedFlagSets) {
	for _, name := range fss.Order {
		cmd.Flags().AddFlagSet(fss.FlagSets[name])
	}
}
