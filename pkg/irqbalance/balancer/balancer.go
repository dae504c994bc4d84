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

package balancer

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/machine"
)

// SocketPolicy decides how often the target socket is chosen.
type SocketPolicy string

const (
	// SocketPolicyPerDevice picks one socket per device so all of its queues
	// stay socket local.
	SocketPolicyPerDevice SocketPolicy = "per-device"
	// SocketPolicyPerQueue picks the least loaded socket again for every queue.
	SocketPolicyPerQueue SocketPolicy = "per-queue"
)

var SocketPolicies = []SocketPolicy{SocketPolicyPerDevice, SocketPolicyPerQueue}

func ParseSocketPolicy(s string) (SocketPolicy, error) {
	policy := SocketPolicy(s)
	if !lo.Contains(SocketPolicies, policy) {
		return "", fmt.Errorf("unknown socket policy %q, expected one of %v", s, SocketPolicies)
	}
	return policy, nil
}

// Placement routes one queue to one core.
type Placement struct {
	Device string
	Socket *machine.Socket
	Core   *machine.Core
	Queue  *interrupts.Queue
}

// Mask is the affinity mask to write for this placement.
func (p Placement) Mask() string {
	return p.Core.AffinityMask()
}

// DeviceDecision lists the sockets a device was spread over, in decision order.
type DeviceDecision struct {
	Device  string
	Sockets []*machine.Socket
}

// Assignment is the outcome of one balancing pass.
type Assignment struct {
	Policy     SocketPolicy
	Decisions  []DeviceDecision
	Placements []Placement
}

func (a *Assignment) Len() int {
	return len(a.Placements)
}

// Balance greedily routes every queue of the registry to the least loaded
// core of the least loaded socket. Devices are visited by name and queues by
// irq, and core loads accumulate across devices, so identical inputs always
// give the same assignment. The topology is mutated; call Reset to reuse it.
func Balance(topology *machine.Topology, registry *interrupts.Registry, policy SocketPolicy) (*Assignment, error) {
	sockets := lo.Filter(topology.Sockets(), func(s *machine.Socket, _ int) bool {
		return len(s.Cores()) > 0
	})
	if len(sockets) == 0 {
		return nil, errors.Wrapf(general.ErrNoCoresAvailable, "%d sockets discovered", len(topology.Sockets()))
	}
	if registry.Len() == 0 {
		return nil, general.ErrNoQueuesMatched
	}

	switch policy {
	case SocketPolicyPerDevice, SocketPolicyPerQueue:
	case "":
		policy = SocketPolicyPerDevice
	default:
		return nil, fmt.Errorf("unknown socket policy %q", policy)
	}

	assignment := &Assignment{Policy: policy}
	for _, device := range registry.Devices() {
		decision := DeviceDecision{Device: device.Name}

		var socket *machine.Socket
		for _, queue := range device.SortedQueues() {
			if socket == nil || policy == SocketPolicyPerQueue {
				socket = leastLoadedSocket(sockets)
				if !lo.Contains(decision.Sockets, socket) {
					decision.Sockets = append(decision.Sockets, socket)
				}
			}

			core := leastLoadedCore(socket)
			core.Assign(queue.IRQ)
			general.InfofV(4, "device %q irq %d -> %v, load %d", device.Name, queue.IRQ, core, core.Load())

			assignment.Placements = append(assignment.Placements, Placement{
				Device: device.Name,
				Socket: socket,
				Core:   core,
				Queue:  queue,
			})
		}
		assignment.Decisions = append(assignment.Decisions, decision)
	}

	return assignment, nil
}

// lo.MinBy keeps the first item on ties, which is the topology order.
func leastLoadedSocket(sockets []*machine.Socket) *machine.Socket {
	return lo.MinBy(sockets, func(a, b *machine.Socket) bool {
		return a.Load() < b.Load()
	})
}

func leastLoadedCore(socket *machine.Socket) *machine.Core {
	return lo.MinBy(socket.Cores(), func(a, b *machine.Core) bool {
		return a.Load() < b.Load()
	})
}
