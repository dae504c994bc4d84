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

package affinity

import (
	"fmt"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/balancer"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	"github.com/kubewharf/katalyst-irqbalance/pkg/metrics"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/machine"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) SetAffinity(irq int, mask string) (bool, error) {
	args := m.Called(irq, mask)
	return args.Bool(0), args.Error(1)
}

func newAssignment(t *testing.T, irqs ...int) *balancer.Assignment {
	topology := machine.NewTopology()
	for cpu := 0; cpu < 4; cpu++ {
		topology.AddCore(fmt.Sprint(cpu/2), cpu, fmt.Sprint(cpu%2))
	}
	registry := interrupts.NewRegistry()
	for i, irq := range irqs {
		registry.Add(&interrupts.Queue{IRQ: irq, Description: fmt.Sprintf("eth0-TxRx-%d", i)})
	}

	a, err := balancer.Balance(topology, registry, balancer.SocketPolicyPerQueue)
	require.NoError(t, err)
	return a
}

func TestApplyToleratesPermissionFailure(t *testing.T) {
	t.Parallel()

	sink := &mockSink{}
	sink.On("SetAffinity", 10, "1").Return(true, nil)
	sink.On("SetAffinity", 11, "4").Return(false, &os.PathError{Op: "write", Path: "/proc/irq/11/smp_affinity", Err: os.ErrPermission})
	sink.On("SetAffinity", 12, "2").Return(false, nil)
	sink.On("SetAffinity", 13, "8").Return(true, nil)

	emitter := metrics.NewTextfileEmitter("")
	outcomes := NewApplier(sink, emitter).Apply(newAssignment(t, 10, 11, 12, 13))
	sink.AssertExpectations(t)

	require.Len(t, outcomes, 4)
	assert.Equal(t, ResultApplied, outcomes[0].Result)
	assert.Equal(t, ResultFailed, outcomes[1].Result)
	assert.True(t, errors.Is(outcomes[1].Err, general.ErrAffinityWriteFailed))
	assert.Contains(t, outcomes[1].Err.Error(), "irq 11 mask 4")
	assert.Equal(t, ResultUnchanged, outcomes[2].Result)
	assert.Equal(t, ResultApplied, outcomes[3].Result)

	summary := Summarize(outcomes)
	assert.Equal(t, Summary{Applied: 2, Unchanged: 1, Failed: 1, errs: []error{outcomes[1].Err}}, summary)
	assert.Error(t, summary.Err())
}

func TestApplyAllSucceeded(t *testing.T) {
	t.Parallel()

	sink := &DryRunSink{}
	outcomes := NewApplier(sink, nil).Apply(newAssignment(t, 20, 21))

	assert.Equal(t, []Write{{IRQ: 20, Mask: "1"}, {IRQ: 21, Mask: "4"}}, sink.Writes)
	summary := Summarize(outcomes)
	assert.Equal(t, 2, summary.Applied)
	assert.NoError(t, summary.Err())
}

func TestRootPrivilegeChecker(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&rootChecker{geteuid: func() int { return 0 }}).CheckPrivilege())

	err := (&rootChecker{geteuid: func() int { return 1000 }}).CheckPrivilege()
	require.Error(t, err)
	assert.True(t, errors.Is(err, general.ErrInsufficientPrivilege))
	assert.Contains(t, err.Error(), "1000")
}
