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

package interrupts

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Queue is one interrupt request line as seen in a single sampling pass.
type Queue struct {
	IRQ         int
	Description string
	// Counts holds the per-cpu counters in column order.
	Counts []uint64
}

// Total sums the per-cpu counters.
func (q *Queue) Total() uint64 {
	return lo.Sum(q.Counts)
}

// Device groups the queues sharing a device name.
type Device struct {
	Name string

	queues []*Queue
}

// Queues returns the device queues in insertion order.
func (d *Device) Queues() []*Queue {
	return d.queues
}

// SortedQueues returns a copy of the device queues ordered by irq.
func (d *Device) SortedQueues() []*Queue {
	queues := append([]*Queue(nil), d.queues...)
	sort.SliceStable(queues, func(i, j int) bool {
		return queues[i].IRQ < queues[j].IRQ
	})
	return queues
}

// DeviceName returns the description up to the first hyphen.
func DeviceName(description string) string {
	if idx := strings.Index(description, "-"); idx >= 0 {
		return description[:idx]
	}
	return description
}

// Registry maps device names to their interrupt queues.
type Registry struct {
	devices map[string]*Device
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// Add appends the queue to the device derived from its description.
func (r *Registry) Add(q *Queue) {
	name := DeviceName(q.Description)
	device, ok := r.devices[name]
	if !ok {
		device = &Device{Name: name}
		r.devices[name] = device
	}
	device.queues = append(device.queues, q)
}

// Device looks a device up by name.
func (r *Registry) Device(name string) (*Device, bool) {
	d, ok := r.devices[name]
	return d, ok
}

// Devices returns every device sorted by name.
func (r *Registry) Devices() []*Device {
	names := lo.Keys(r.devices)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) *Device {
		return r.devices[name]
	})
}

// Len returns the number of queues across all devices.
func (r *Registry) Len() int {
	n := 0
	for _, d := range r.devices {
		n += len(d.queues)
	}
	return n
}
