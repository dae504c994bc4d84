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

package options

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/kubewharf/katalyst-irqbalance/cmd/base/options"
	"github.com/kubewharf/katalyst-irqbalance/pkg/config"
	"github.com/kubewharf/katalyst-irqbalance/pkg/config/irqbalance"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/balancer"
	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
)

const (
	defaultBalanceNameFilter = "IR-"
	defaultMonitorNameFilter = "eth"
	defaultMonitorInterval   = 0.3

	minMonitorInterval = time.Millisecond
)

var topologySources = []string{string(irqbalance.TopologySourceCPUInfo), string(irqbalance.TopologySourceSysfs)}

// NameFilterOptions selects the interrupt lines a command works on.
type NameFilterOptions struct {
	NameFilter     string
	NameFilterMode string
}

func (o *NameFilterOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.NameFilter, "name-filter", o.NameFilter,
		"only interrupt lines matching this filter are considered")
	fs.StringVar(&o.NameFilterMode, "name-filter-mode", o.NameFilterMode,
		fmt.Sprintf("how name-filter is matched, one of [%s, %s]", interrupts.MatchModeSubstring, interrupts.MatchModeRegexp))
}

func (o *NameFilterOptions) Validate() error {
	_, err := interrupts.NewMatcher(interrupts.MatchMode(o.NameFilterMode), o.NameFilter)
	return err
}

func (o *NameFilterOptions) ApplyTo(c *irqbalance.NameFilterConfiguration) error {
	c.NameFilter = o.NameFilter
	c.NameFilterMode = interrupts.MatchMode(o.NameFilterMode)
	return nil
}

// BalanceOptions holds the configurations for the balance command.
type BalanceOptions struct {
	*options.GenericOptions

	Apply          bool
	SocketPolicy   string
	TopologySource string

	filter *NameFilterOptions
}

func NewBalanceOptions() *BalanceOptions {
	return &BalanceOptions{
		GenericOptions: options.NewGenericOptions(),
		SocketPolicy:   string(balancer.SocketPolicyPerDevice),
		TopologySource: string(irqbalance.TopologySourceCPUInfo),
		filter: &NameFilterOptions{
			NameFilter:     defaultBalanceNameFilter,
			NameFilterMode: string(interrupts.MatchModeSubstring),
		},
	}
}

// AddFlags adds flags  to the specified FlagSet.
func (o *BalanceOptions) AddFlags(fss *cliflag.NamedFlagSets) {
	o.GenericOptions.AddFlags(fss)

	fs := fss.FlagSet("balance")
	fs.BoolVar(&o.Apply, "apply", o.Apply,
		"write the computed affinity masks, otherwise only report the plan")
	fs.StringVar(&o.SocketPolicy, "socket-policy", o.SocketPolicy,
		fmt.Sprintf("how often the target socket is chosen, one of %v", balancer.SocketPolicies))
	fs.StringVar(&o.TopologySource, "topology-source", o.TopologySource,
		fmt.Sprintf("where the cpu topology is discovered, one of %v", topologySources))
	o.filter.AddFlags(fs)
}

// Validate checks every option, all problems are reported at once.
func (o *BalanceOptions) Validate() error {
	errList := []error{o.GenericOptions.Validate(), o.filter.Validate()}

	if _, err := balancer.ParseSocketPolicy(o.SocketPolicy); err != nil {
		errList = append(errList, err)
	}
	if !lo.Contains(topologySources, o.TopologySource) {
		errList = append(errList, fmt.Errorf("unknown topology source %q, expected one of %v", o.TopologySource, topologySources))
	}
	return errors.NewAggregate(errList)
}

// ApplyTo fills up config with options
func (o *BalanceOptions) ApplyTo(c *config.Configuration) error {
	c.Apply = o.Apply
	c.SocketPolicy = balancer.SocketPolicy(o.SocketPolicy)
	c.TopologySource = irqbalance.TopologySource(o.TopologySource)

	return errors.NewAggregate([]error{
		o.GenericOptions.ApplyTo(c.GenericConfiguration),
		o.filter.ApplyTo(&c.BalanceFilter),
	})
}

// Config validates the options and returns a new configuration instance.
func (o *BalanceOptions) Config() (*config.Configuration, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	c := config.NewConfiguration()
	if err := o.ApplyTo(c); err != nil {
		return nil, err
	}
	return c, nil
}

// MonitorOptions holds the configurations for the monitor command.
type MonitorOptions struct {
	*options.GenericOptions

	// Interval is in seconds, fractions allowed.
	Interval float64

	filter *NameFilterOptions
}

func NewMonitorOptions() *MonitorOptions {
	return &MonitorOptions{
		GenericOptions: options.NewGenericOptions(),
		Interval:       defaultMonitorInterval,
		filter: &NameFilterOptions{
			NameFilter:     defaultMonitorNameFilter,
			NameFilterMode: string(interrupts.MatchModeSubstring),
		},
	}
}

// AddFlags adds flags  to the specified FlagSet.
func (o *MonitorOptions) AddFlags(fss *cliflag.NamedFlagSets) {
	o.GenericOptions.AddFlags(fss)

	fs := fss.FlagSet("monitor")
	fs.Float64Var(&o.Interval, "interval", o.Interval, "refresh interval in seconds")
	o.filter.AddFlags(fs)
}

func (o *MonitorOptions) Validate() error {
	errList := []error{o.GenericOptions.Validate(), o.filter.Validate()}
	if o.interval() < minMonitorInterval {
		errList = append(errList, fmt.Errorf("interval must be at least %v, got %vs", minMonitorInterval, o.Interval))
	}
	return errors.NewAggregate(errList)
}

func (o *MonitorOptions) interval() time.Duration {
	return time.Duration(o.Interval * float64(time.Second))
}

// ApplyTo fills up config with options
func (o *MonitorOptions) ApplyTo(c *config.Configuration) error {
	c.Interval = o.interval()

	return errors.NewAggregate([]error{
		o.GenericOptions.ApplyTo(c.GenericConfiguration),
		o.filter.ApplyTo(&c.MonitorFilter),
	})
}

// Config validates the options and returns a new configuration instance.
func (o *MonitorOptions) Config() (*config.Configuration, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	c := config.NewConfiguration()
	if err := o.ApplyTo(c); err != nil {
		return nil, err
	}
	return c, nil
}
