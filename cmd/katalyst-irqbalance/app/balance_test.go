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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubewharf/katalyst-irqbalance/pkg/config"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/affinity"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/balancer"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	"github.com/kubewharf/katalyst-irqbalance/pkg/metrics"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
	procfsm "github.com/kubewharf/katalyst-irqbalance/pkg/util/procfs/manager"
)

const (
	testProcRoot = "/host/proc"

	testCPUInfo = `processor	: 0
physical id	: 0
core id		: 0

processor	: 1
physical id	: 0
core id		: 1

processor	: 2
physical id	: 1
core id		: 0

processor	: 3
physical id	: 1
core id		: 1

`
	testInterrupts = `            CPU0       CPU1       CPU2       CPU3
  0:         33          0          0          0   IO-APIC   2-edge      timer
 11:          0          5          0          0   IR-PCI-MSI-edge      eth0-TxRx-1
 10:          7          0          0          0   IR-PCI-MSI-edge      eth0-TxRx-0
 12:          0          0          9          0   IR-PCI-MSI-edge      eth0-TxRx-2
 13:          0          0          0          1   IR-PCI-MSI-edge      eth0-TxRx-3
NMI:          0          0          0          0   Non-maskable interrupts
`
)

type fakePrivilege struct {
	err error
}

func (f fakePrivilege) CheckPrivilege() error {
	return f.err
}

// newTestDeps builds a procfs tree where irq 12 has no /proc/irq entry.
func newTestDeps(t *testing.T) (afero.Fs, *BalanceDeps, *bytes.Buffer) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testProcRoot, "cpuinfo"), []byte(testCPUInfo), 0o444))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testProcRoot, "interrupts"), []byte(testInterrupts), 0o444))
	for _, irq := range []int{10, 11, 13} {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("%s/irq/%d/smp_affinity", testProcRoot, irq), []byte("f\n"), 0o644))
	}

	procfs := procfsm.NewProcFSManager(fs, testProcRoot)
	out := &bytes.Buffer{}
	return fs, &BalanceDeps{
		Topology:   procfs,
		Statistics: procfs,
		Sink:       procfs,
		Privilege:  fakePrivilege{},
		Emitter:    metrics.DummyMetrics{},
		Out:        out,
	}, out
}

func newTestConfig(apply bool, filter string) *config.Configuration {
	conf := config.NewConfiguration()
	conf.ProcRoot = testProcRoot
	conf.Apply = apply
	conf.SocketPolicy = balancer.SocketPolicyPerDevice
	conf.BalanceFilter.NameFilter = filter
	conf.BalanceFilter.NameFilterMode = interrupts.MatchModeSubstring
	return conf
}

func readAffinity(t *testing.T, fs afero.Fs, irq int) string {
	content, err := afero.ReadFile(fs, fmt.Sprintf("%s/irq/%d/smp_affinity", testProcRoot, irq))
	require.NoError(t, err)
	return string(content)
}

func TestRunBalanceDryRun(t *testing.T) {
	t.Parallel()

	fs, deps, out := newTestDeps(t)
	require.NoError(t, RunBalance(newTestConfig(false, "IR-"), deps))

	assert.Equal(t, `device "eth0" -> socket 0
  irq 10 (eth0-TxRx-0) -> core 0 (cpu 0) on socket 0, mask 1
  irq 11 (eth0-TxRx-1) -> core 1 (cpu 1) on socket 0, mask 2
  irq 12 (eth0-TxRx-2) -> core 0 (cpu 0) on socket 0, mask 1
  irq 13 (eth0-TxRx-3) -> core 1 (cpu 1) on socket 0, mask 2
core load: min 0, max 2, stddev 1.00
dry run, 4 affinity writes pending, rerun with --apply to write them
`, out.String())
	assert.Equal(t, "f\n", readAffinity(t, fs, 10))
	assert.Equal(t, "f\n", readAffinity(t, fs, 11))
	assert.NotContains(t, out.String(), "applied")
}

func TestRunBalanceApplyWithFailure(t *testing.T) {
	t.Parallel()

	fs, deps, out := newTestDeps(t)
	err := RunBalance(newTestConfig(true, "IR-"), deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, general.ErrAffinityWriteFailed))

	assert.Contains(t, out.String(), "failed: irq 12 mask 1: irq 12 does not exist")
	assert.Contains(t, out.String(), "applied 3, unchanged 0, failed 1")
	assert.Equal(t, "00000001", readAffinity(t, fs, 10))
	assert.Equal(t, "00000002", readAffinity(t, fs, 11))
	assert.Equal(t, "00000002", readAffinity(t, fs, 13))
}

func TestRunBalanceInsufficientPrivilege(t *testing.T) {
	t.Parallel()

	fs, deps, out := newTestDeps(t)
	deps.Privilege = fakePrivilege{err: errors.Wrap(general.ErrInsufficientPrivilege, "uid 1000")}

	err := RunBalance(newTestConfig(true, "IR-"), deps)
	assert.True(t, errors.Is(err, general.ErrInsufficientPrivilege))
	assert.Empty(t, out.String())
	assert.Equal(t, "f\n", readAffinity(t, fs, 10))
}

func TestRunBalanceFatalErrors(t *testing.T) {
	t.Parallel()

	_, deps, _ := newTestDeps(t)
	err := RunBalance(newTestConfig(false, "mlx5"), deps)
	assert.True(t, errors.Is(err, general.ErrNoQueuesMatched))
	assert.Contains(t, err.Error(), "mlx5")

	_, deps, _ = newTestDeps(t)
	deps.Topology = procfsm.NewProcFSManager(afero.NewMemMapFs(), testProcRoot)
	err = RunBalance(newTestConfig(false, "IR-"), deps)
	assert.True(t, errors.Is(err, general.ErrTopologyUnavailable))

	_, deps, _ = newTestDeps(t)
	deps.Statistics = procfsm.NewProcFSManager(afero.NewMemMapFs(), testProcRoot)
	err = RunBalance(newTestConfig(false, "IR-"), deps)
	assert.True(t, general.IsSourceUnavailable(err))
	assert.True(t, errors.Is(err, general.ErrStatisticsUnavailable))

	_, deps, _ = newTestDeps(t)
	conf := newTestConfig(false, "(")
	conf.BalanceFilter.NameFilterMode = interrupts.MatchModeRegexp
	assert.Error(t, RunBalance(conf, deps))
}

func TestWithSourceHint(t *testing.T) {
	t.Parallel()

	conf := newTestConfig(false, "IR-")
	conf.SysRoot = "/host/sys"
	_, deps, _ := newTestDeps(t)
	deps.Statistics = procfsm.NewProcFSManager(afero.NewMemMapFs(), testProcRoot)

	err := withSourceHint(conf, RunBalance(conf, deps))
	require.Error(t, err)
	assert.True(t, errors.Is(err, general.ErrStatisticsUnavailable))
	assert.Contains(t, err.Error(), "check --proc-root /host/proc and --sys-root /host/sys")

	conf = newTestConfig(false, "mlx5")
	_, deps, _ = newTestDeps(t)
	err = withSourceHint(conf, RunBalance(conf, deps))
	require.Error(t, err)
	assert.True(t, errors.Is(err, general.ErrNoQueuesMatched))
	assert.NotContains(t, err.Error(), "--proc-root")

	assert.NoError(t, withSourceHint(conf, nil))
}

func TestRunBalanceMetrics(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "irqbalance.prom")
	_, deps, _ := newTestDeps(t)
	deps.Sink = &affinity.DryRunSink{}
	deps.Emitter = metrics.NewTextfileEmitter(path)

	require.NoError(t, RunBalance(newTestConfig(true, "IR-"), deps))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `irqbalance_queues{emit_unit="balance"} 4`)
	assert.Contains(t, string(content), `irqbalance_socket_load{emit_unit="balance",socket="0"} 4`)
	assert.Contains(t, string(content), `irqbalance_core_load{core="3",emit_unit="balance",socket="1"} 0`)
	assert.Contains(t, string(content), `irqbalance_affinity_writes_total{emit_unit="balance",result="applied"} 4`)
	assert.Contains(t, string(content), `irqbalance_core_load_stddev{emit_unit="balance"} 1`)
}

func TestNewBalanceDeps(t *testing.T) {
	t.Parallel()

	conf := newTestConfig(false, "IR-")
	conf.TextfilePath = filepath.Join(t.TempDir(), "m.prom")
	deps, err := NewBalanceDeps(conf, &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &metrics.TextfileEmitter{}, deps.Emitter)

	conf.TopologySource = "sysfs"
	conf.SysRoot = filepath.Join(t.TempDir(), "missing")
	_, err = NewBalanceDeps(conf, &bytes.Buffer{})
	assert.True(t, errors.Is(err, general.ErrTopologyUnavailable))
}
