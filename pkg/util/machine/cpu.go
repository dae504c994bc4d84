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

package machine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

const (
	CPUInfoKeyProcessor  = "processor"
	CPUInfoKeyPhysicalID = "physical id"
	CPUInfoKeyCoreID     = "core id"
)

// TopologyProvider returns cpuinfo formatted lines: `key : value` pairs,
// one block per logical cpu, blocks separated by a blank line.
type TopologyProvider interface {
	CPUInfoLines() ([]string, error)
}

type cpuBlock struct {
	processor  *int
	physicalID *string
	coreID     string
}

func (b *cpuBlock) complete() bool {
	return b.processor != nil && b.physicalID != nil
}

// BuildTopology groups cpuinfo lines into sockets and cores. Blocks without
// `processor` or `physical id` (offline or virtual entries) are skipped.
func BuildTopology(lines []string) *Topology {
	topology := NewTopology()
	block := &cpuBlock{}

	flush := func() {
		if block.complete() {
			topology.AddCore(*block.physicalID, *block.processor, block.coreID)
		} else if block.processor != nil || block.physicalID != nil {
			general.InfofV(4, "skip incomplete cpuinfo block: %v", errors.Wrapf(general.ErrMalformedRecord,
				"processor set %v, physical id set %v", block.processor != nil, block.physicalID != nil))
		}
		block = &cpuBlock{}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			continue
		}

		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case CPUInfoKeyProcessor:
			processor, err := strconv.Atoi(value)
			if err != nil {
				general.InfofV(4, "invalid processor %q: %v", value, err)
				continue
			}
			block.processor = &processor
		case CPUInfoKeyPhysicalID:
			physicalID := value
			block.physicalID = &physicalID
		case CPUInfoKeyCoreID:
			block.coreID = value
		}
	}
	flush()

	return topology
}

// LoadTopology reads the provider and builds the topology from it.
func LoadTopology(provider TopologyProvider) (*Topology, error) {
	lines, err := provider.CPUInfoLines()
	if err != nil {
		return nil, errors.Wrap(general.ErrTopologyUnavailable, err.Error())
	}
	return BuildTopology(lines), nil
}
