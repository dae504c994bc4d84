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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/kubewharf/katalyst-irqbalance/pkg/config"
	"github.com/kubewharf/katalyst-irqbalance/pkg/config/irqbalance"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/affinity"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/balancer"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	"github.com/kubewharf/katalyst-irqbalance/pkg/metrics"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/machine"
	procfsm "github.com/kubewharf/katalyst-irqbalance/pkg/util/procfs/manager"
	sysfsm "github.com/kubewharf/katalyst-irqbalance/pkg/util/sysfs/manager"
)

const (
	metricsUnitBalance = "balance"

	metricsNameQueues     = "irqbalance_queues"
	metricsNameSocketLoad = "irqbalance_socket_load"
	metricsNameCoreLoad   = "irqbalance_core_load"
	metricsNameLoadStdDev = "irqbalance_core_load_stddev"

	metricsTagKeySocket = "socket"
	metricsTagKeyCore   = "core"
)

// BalanceDeps are the collaborators of a balancing run.
type BalanceDeps struct {
	Topology   machine.TopologyProvider
	Statistics interrupts.StatisticsProvider
	Sink       affinity.Sink
	Privilege  affinity.PrivilegeChecker
	Emitter    metrics.MetricEmitter
	Out        io.Writer
}

// NewBalanceDeps wires the procfs and sysfs backed collaborators.
func NewBalanceDeps(conf *config.Configuration, out io.Writer) (*BalanceDeps, error) {
	procfs := procfsm.NewProcFSManager(afero.NewOsFs(), conf.ProcRoot)

	deps := &BalanceDeps{
		Topology:   procfs,
		Statistics: procfs,
		Sink:       procfs,
		Privilege:  affinity.NewRootPrivilegeChecker(),
		Emitter:    metrics.DummyMetrics{},
		Out:        out,
	}

	if conf.TopologySource == irqbalance.TopologySourceSysfs {
		sysfs, err := sysfsm.NewSysFsManager(conf.SysRoot)
		if err != nil {
			return nil, errors.Wrap(general.ErrTopologyUnavailable, err.Error())
		}
		deps.Topology = sysfs
	}

	if conf.TextfilePath != "" {
		deps.Emitter = metrics.NewTextfileEmitter(conf.TextfilePath)
	}
	return deps, nil
}

// RunBalance discovers the topology, balances the matched queues, prints
// the plan and, when configured to apply, writes the affinity masks. The
// returned error is non nil when anything failed, including a single write.
func RunBalance(conf *config.Configuration, deps *BalanceDeps) error {
	if conf.Apply {
		if err := deps.Privilege.CheckPrivilege(); err != nil {
			return err
		}
	}

	matcher, err := conf.BalanceFilter.Matcher()
	if err != nil {
		return err
	}

	topology, err := machine.LoadTopology(deps.Topology)
	if err != nil {
		return err
	}
	general.InfofV(4, "discovered %d sockets and %d cores", len(topology.Sockets()), topology.NumCores())

	registry, err := interrupts.LoadRegistry(deps.Statistics, matcher)
	if err != nil {
		return err
	}

	assignment, err := balancer.Balance(topology, registry, conf.SocketPolicy)
	if err != nil {
		if errors.Is(err, general.ErrNoQueuesMatched) {
			return errors.Wrapf(err, "name filter %v", matcher)
		}
		return err
	}

	emitter := deps.Emitter.WithTags(metricsUnitBalance)
	defer func() {
		if err := deps.Emitter.Flush(); err != nil {
			general.Warningf("flush metrics failed: %v", err)
		}
	}()
	emitLoads(emitter, topology, registry)

	printPlan(deps.Out, assignment)
	printLoadSummary(deps.Out, emitter, topology)
	if !conf.Apply {
		dryRun := &affinity.DryRunSink{}
		affinity.NewApplier(dryRun, nil).Apply(assignment)
		fmt.Fprintf(deps.Out, "dry run, %d affinity writes pending, rerun with --apply to write them\n", len(dryRun.Writes))
		return nil
	}

	outcomes := affinity.NewApplier(deps.Sink, emitter).Apply(assignment)
	summary := affinity.Summarize(outcomes)
	printOutcomes(deps.Out, outcomes, summary)
	return summary.Err()
}

// withSourceHint points at the configured roots when a host source could
// not be read.
func withSourceHint(conf *config.Configuration, err error) error {
	if !general.IsSourceUnavailable(err) {
		return err
	}
	return errors.Wrapf(err, "check --proc-root %s and --sys-root %s", conf.ProcRoot, conf.SysRoot)
}

func emitLoads(emitter metrics.MetricEmitter, topology *machine.Topology, registry *interrupts.Registry) {
	_ = emitter.StoreInt64(metricsNameQueues, int64(registry.Len()), metrics.MetricTypeNameRaw)
	for _, socket := range topology.Sockets() {
		_ = emitter.StoreInt64(metricsNameSocketLoad, int64(socket.Load()), metrics.MetricTypeNameRaw,
			metrics.MetricTag{Key: metricsTagKeySocket, Val: socket.PhysicalID})
		for _, core := range socket.Cores() {
			_ = emitter.StoreInt64(metricsNameCoreLoad, int64(core.Load()), metrics.MetricTypeNameRaw,
				metrics.ConvertMapToTags(map[string]string{
					metricsTagKeySocket: socket.PhysicalID,
					metricsTagKeyCore:   strconv.Itoa(core.Index),
				})...)
		}
	}
}

// printPlan prints the device to socket and queue to core mapping.
func printPlan(out io.Writer, assignment *balancer.Assignment) {
	byDevice := lo.GroupBy(assignment.Placements, func(p balancer.Placement) string {
		return p.Device
	})

	for _, decision := range assignment.Decisions {
		sockets := lo.Map(decision.Sockets, func(s *machine.Socket, _ int) string {
			return s.PhysicalID
		})
		fmt.Fprintf(out, "device %q -> socket %s\n", decision.Device, strings.Join(sockets, ","))

		for _, p := range byDevice[decision.Device] {
			fmt.Fprintf(out, "  irq %d (%s) -> %v, mask %s\n", p.Queue.IRQ, p.Queue.Description, p.Core, p.Mask())
		}
	}
}

// printLoadSummary reports how evenly queues ended up spread over all cores.
func printLoadSummary(out io.Writer, emitter metrics.MetricEmitter, topology *machine.Topology) {
	loads := stats.Float64Data(lo.Map(topology.Cores(), func(c *machine.Core, _ int) float64 {
		return float64(c.Load())
	}))

	minLoad, _ := loads.Min()
	maxLoad, _ := loads.Max()
	stddev, err := loads.StandardDeviation()
	if err != nil {
		general.Warningf("compute load deviation failed: %v", err)
		return
	}

	_ = emitter.StoreFloat64(metricsNameLoadStdDev, stddev, metrics.MetricTypeNameRaw)
	fmt.Fprintf(out, "core load: min %.0f, max %.0f, stddev %.2f\n", minLoad, maxLoad, stddev)
}

func printOutcomes(out io.Writer, outcomes []affinity.Outcome, summary affinity.Summary) {
	for _, o := range outcomes {
		if o.Result == affinity.ResultFailed {
			fmt.Fprintf(out, "failed: %v\n", o.Err)
		}
	}
	fmt.Fprintf(out, "applied %d, unchanged %d, failed %d\n", summary.Applied, summary.Unchanged, summary.Failed)
}
