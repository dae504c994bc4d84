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

package irqbalance

import (
	"time"

	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/balancer"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
)

type TopologySource string

const (
	TopologySourceCPUInfo TopologySource = "cpuinfo"
	TopologySourceSysfs   TopologySource = "sysfs"
)

// NameFilterConfiguration selects the interrupt lines taking part.
type NameFilterConfiguration struct {
	NameFilter     string
	NameFilterMode interrupts.MatchMode
}

// Matcher builds the matcher of this filter.
func (c NameFilterConfiguration) Matcher() (interrupts.Matcher, error) {
	return interrupts.NewMatcher(c.NameFilterMode, c.NameFilter)
}

type BalanceConfiguration struct {
	// Apply writes the computed masks; otherwise the plan is only reported.
	Apply bool

	BalanceFilter  NameFilterConfiguration
	SocketPolicy   balancer.SocketPolicy
	TopologySource TopologySource
}

type MonitorConfiguration struct {
	Interval      time.Duration
	MonitorFilter NameFilterConfiguration
}

func NewBalanceConfiguration() *BalanceConfiguration {
	return &BalanceConfiguration{}
}

func NewMonitorConfiguration() *MonitorConfiguration {
	return &MonitorConfiguration{}
}
