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

package manager

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInterrupts = `            CPU0       CPU1
  0:         33          0   IO-APIC   2-edge      timer
 45:        120        240   IR-PCI-MSI-edge      eth2-TxRx-0
`

func newTestFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/host/proc/interrupts", []byte(testInterrupts), 0o444))
	require.NoError(t, afero.WriteFile(fs, "/host/proc/cpuinfo", []byte("processor : 0\nphysical id : 0\n\n"), 0o444))
	require.NoError(t, afero.WriteFile(fs, "/host/proc/irq/45/smp_affinity", []byte("00000000,00000003\n"), 0o644))
	return fs
}

func TestManagerReadLines(t *testing.T) {
	t.Parallel()

	m := NewProcFSManager(newTestFs(t), "/host/proc")

	lines, err := m.InterruptLines()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "eth2-TxRx-0")

	lines, err = m.CPUInfoLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"processor : 0", "physical id : 0", ""}, lines)

	_, err = NewProcFSManager(afero.NewMemMapFs(), "").InterruptLines()
	assert.Error(t, err)
}

func TestManagerSetAffinity(t *testing.T) {
	t.Parallel()

	fs := newTestFs(t)
	m := NewProcFSManager(fs, "/host/proc")

	applied, err := m.SetAffinity(45, "2")
	require.NoError(t, err)
	assert.True(t, applied)

	content, err := afero.ReadFile(fs, "/host/proc/irq/45/smp_affinity")
	require.NoError(t, err)
	assert.Equal(t, "00000002", string(content))

	// the second write is a no-op
	applied, err = m.SetAffinity(45, "2")
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = m.SetAffinity(46, "2")
	assert.EqualError(t, err, "irq 46 does not exist")

	_, err = m.SetAffinity(0, "1")
	assert.Error(t, err)

	_, err = m.SetAffinity(45, "not-hex")
	assert.Error(t, err)
}
