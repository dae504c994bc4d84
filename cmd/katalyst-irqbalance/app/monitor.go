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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/kubewharf/katalyst-irqbalance/pkg/config"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/monitor"
	procfsm "github.com/kubewharf/katalyst-irqbalance/pkg/util/procfs/manager"
)

// MonitorDeps are the collaborators of a monitor run.
type MonitorDeps struct {
	Statistics interrupts.StatisticsProvider
	Size       monitor.TerminalSize
	Out        io.Writer
	// Keys delivers key presses, nil when input is not a terminal.
	Keys <-chan byte
}

// RunMonitor redraws the per-cpu interrupt activity until ctx is done or
// the user quits.
func RunMonitor(ctx context.Context, conf *config.Configuration, deps *MonitorDeps) error {
	matcher, err := conf.MonitorFilter.Matcher()
	if err != nil {
		return err
	}

	header := fmt.Sprintf("irq activity, filter %v, every %v (j/k scroll, space page, q quit)", matcher, conf.Interval)
	m := monitor.NewMonitor(monitor.NewSampler(deps.Statistics, matcher), conf.Interval, deps.Out, deps.Size, header)
	return m.Run(ctx, deps.Keys)
}

// runMonitorOnTerminal puts stdin in raw mode when it is a terminal and
// runs the monitor on the process standard streams.
func runMonitorOnTerminal(ctx context.Context, conf *config.Configuration) error {
	stdin := int(os.Stdin.Fd())
	restore, err := monitor.MakeRaw(stdin)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %v", err)
	}
	defer restore()

	deps := &MonitorDeps{
		Statistics: procfsm.NewProcFSManager(afero.NewOsFs(), conf.ProcRoot),
		Size:       monitor.NewTerminalSize(int(os.Stdout.Fd())),
		Out:        os.Stdout,
	}
	if term.IsTerminal(stdin) {
		deps.Keys = monitor.ReadKeys(os.Stdin)
	}
	return RunMonitor(ctx, conf, deps)
}
