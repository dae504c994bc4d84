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
	"fmt"
	"sort"
	"strconv"

	"github.com/prometheus/procfs/sysfs"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/machine"
)

const DefaultSysRoot = "/sys"

var logger = general.LoggerWithPrefix("sysfs", general.LoggingPKGShort)

type SysFSManager interface {
	GetSystemCPUs() ([]sysfs.CPU, error)
	// CPUInfoLines renders the cpu topology in cpuinfo block format.
	CPUInfoLines() ([]string, error)
}

type manager struct {
	sys sysfs.FS
}

var (
	_ SysFSManager             = &manager{}
	_ machine.TopologyProvider = &manager{}
)

// NewSysFsManager returns a manager for sysfs mounted at sysRoot
func NewSysFsManager(sysRoot string) (*manager, error) {
	if sysRoot == "" {
		sysRoot = DefaultSysRoot
	}

	sys, err := sysfs.NewFS(sysRoot)
	if err != nil {
		return nil, err
	}
	return &manager{sys: sys}, nil
}

// GetSystemCPUs returns a slice of all CPUs in `/sys/devices/system/cpu`,
// ordered by cpu number.
func (m *manager) GetSystemCPUs() ([]sysfs.CPU, error) {
	cpus, err := m.sys.CPUs()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cpus, func(i, j int) bool {
		return cpuNumber(cpus[i]) < cpuNumber(cpus[j])
	})
	return cpus, nil
}

// CPUInfoLines walks every cpu and emits processor/physical id/core id blocks.
// A cpu whose topology cannot be read is emitted without physical id, so
// the topology builder skips it.
func (m *manager) CPUInfoLines() ([]string, error) {
	cpus, err := m.GetSystemCPUs()
	if err != nil {
		return nil, err
	}
	if len(cpus) == 0 {
		return nil, fmt.Errorf("no cpu found in sysfs")
	}

	lines := make([]string, 0, len(cpus)*4)
	for _, cpu := range cpus {
		lines = append(lines, fmt.Sprintf("%s\t: %s", machine.CPUInfoKeyProcessor, cpu.Number()))

		topology, err := cpu.Topology()
		if err != nil {
			logger.Warningf("get topology of cpu %s failed, err: %v", cpu.Number(), err)
		} else {
			lines = append(lines,
				fmt.Sprintf("%s\t: %s", machine.CPUInfoKeyPhysicalID, topology.PhysicalPackageID),
				fmt.Sprintf("%s\t: %s", machine.CPUInfoKeyCoreID, topology.CoreID))
		}
		lines = append(lines, "")
	}
	return lines, nil
}

func cpuNumber(cpu sysfs.CPU) int {
	n, err := strconv.Atoi(cpu.Number())
	if err != nil {
		return -1
	}
	return n
}
