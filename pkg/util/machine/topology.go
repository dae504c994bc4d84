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
	"fmt"
	"math/big"
)

// Core is one logical cpu able to service interrupts. Its load is the
// number of interrupt queues currently routed to it.
type Core struct {
	// Index is the global cpu number (the `processor` field of cpuinfo).
	Index int
	// LocalID is the `core id` inside the owning socket.
	LocalID  string
	SocketID string

	irqs []int
}

// Load returns the number of queues assigned to this core.
func (c *Core) Load() int {
	return len(c.irqs)
}

// Assign routes the given irq to this core.
func (c *Core) Assign(irq int) {
	c.irqs = append(c.irqs, irq)
}

// IRQs returns the assigned irqs in assignment order.
func (c *Core) IRQs() []int {
	return append([]int(nil), c.irqs...)
}

// AffinityMask returns the one-hot smp affinity mask of this core.
func (c *Core) AffinityMask() string {
	return CoreMask(c.Index)
}

func (c *Core) String() string {
	return fmt.Sprintf("core %s (cpu %d) on socket %s", c.LocalID, c.Index, c.SocketID)
}

// CoreMask renders 1<<index as lower case hex without prefix, e.g. 4 -> "10".
// big.Int keeps it correct for machines with more than 64 cpus.
func CoreMask(index int) string {
	return new(big.Int).Lsh(big.NewInt(1), uint(index)).Text(16)
}

// Socket is a physical cpu package.
type Socket struct {
	PhysicalID string

	cores []*Core
}

// Cores returns the socket cores in discovery order.
func (s *Socket) Cores() []*Core {
	return s.cores
}

// Load is the sum of the loads of all cores in this socket.
func (s *Socket) Load() int {
	load := 0
	for _, core := range s.cores {
		load += core.Load()
	}
	return load
}

func (s *Socket) String() string {
	return fmt.Sprintf("socket %s", s.PhysicalID)
}

// Topology holds sockets in first-seen order.
type Topology struct {
	sockets    []*Socket
	socketByID map[string]*Socket
	numCores   int
}

func NewTopology() *Topology {
	return &Topology{
		socketByID: make(map[string]*Socket),
	}
}

// AddCore appends a core to the socket with the given physical id,
// creating the socket on first sight.
func (t *Topology) AddCore(physicalID string, index int, localID string) *Core {
	socket, ok := t.socketByID[physicalID]
	if !ok {
		socket = &Socket{PhysicalID: physicalID}
		t.socketByID[physicalID] = socket
		t.sockets = append(t.sockets, socket)
	}

	core := &Core{Index: index, LocalID: localID, SocketID: physicalID}
	socket.cores = append(socket.cores, core)
	t.numCores++
	return core
}

// Sockets returns the sockets in first-seen order.
func (t *Topology) Sockets() []*Socket {
	return t.sockets
}

// Cores returns every core, socket by socket.
func (t *Topology) Cores() []*Core {
	cores := make([]*Core, 0, t.numCores)
	for _, socket := range t.sockets {
		cores = append(cores, socket.cores...)
	}
	return cores
}

func (t *Topology) NumCores() int {
	return t.numCores
}

// Reset drops every assignment so the topology can be balanced again.
func (t *Topology) Reset() {
	for _, core := range t.Cores() {
		core.irqs = nil
	}
}
