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
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubewharf/katalyst-irqbalance/pkg/config"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	procfsm "github.com/kubewharf/katalyst-irqbalance/pkg/util/procfs/manager"
)

func TestIRQBalanceCommand(t *testing.T) {
	t.Parallel()

	cmd := NewIRQBalanceCommand()
	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"balance", "monitor"}, names)

	balance, _, err := cmd.Find([]string{"balance"})
	require.NoError(t, err)
	for _, flag := range []string{"apply", "verbose", "name-filter", "name-filter-mode", "socket-policy",
		"topology-source", "proc-root", "sys-root", "metrics-textfile", "logs-package-level", "v"} {
		assert.NotNil(t, balance.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "IR-", balance.Flags().Lookup("name-filter").DefValue)

	monitor, _, err := cmd.Find([]string{"monitor"})
	require.NoError(t, err)
	assert.NotNil(t, monitor.Flags().Lookup("interval"))
	assert.Equal(t, "eth", monitor.Flags().Lookup("name-filter").DefValue)
}

func TestBalanceCommandRejectsBadFlags(t *testing.T) {
	t.Parallel()

	cmd := NewIRQBalanceCommand()
	cmd.SetArgs([]string{"balance", "--socket-policy=numa"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRunMonitor(t *testing.T) {
	t.Parallel()

	fs, _, _ := newTestDeps(t)
	conf := config.NewConfiguration()
	conf.Interval = time.Millisecond
	conf.MonitorFilter.NameFilter = "eth0"
	conf.MonitorFilter.NameFilterMode = interrupts.MatchModeSubstring

	out := &bytes.Buffer{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.NoError(t, RunMonitor(ctx, conf, &MonitorDeps{
		Statistics: procfsm.NewProcFSManager(fs, testProcRoot),
		Size:       fixedSize{cols: 120, rows: 20},
		Out:        out,
	}))
	assert.Contains(t, out.String(), "filter substring(\"eth0\")")
	assert.Contains(t, out.String(), "@ irq 010] - - - -")
}

type fixedSize struct {
	cols, rows int
}

func (f fixedSize) Size() (int, int, error) {
	return f.cols, f.rows, nil
}
