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
	"flag"
	"fmt"
	"os"

	"k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/klog/v2"

	"github.com/kubewharf/katalyst-irqbalance/pkg/config/generic"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/procfs/manager"
	sysfsm "github.com/kubewharf/katalyst-irqbalance/pkg/util/sysfs/manager"
)

// GenericOptions holds the configurations shared by every command.
type GenericOptions struct {
	ProcRoot string
	SysRoot  string

	metricsOptions *MetricsOptions
	logsOptions    *LogsOptions
}

func NewGenericOptions() *GenericOptions {
	return &GenericOptions{
		ProcRoot:       manager.DefaultProcRoot,
		SysRoot:        sysfsm.DefaultSysRoot,
		metricsOptions: NewMetricsOptions(),
		logsOptions:    NewLogsOptions(),
	}
}

// AddFlags adds flags  to the specified FlagSet.
func (o *GenericOptions) AddFlags(fss *cliflag.NamedFlagSets) {
	fs := fss.FlagSet("generic")

	local := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	klog.InitFlags(local)
	local.VisitAll(func(fl *flag.Flag) {
		fs.AddGoFlag(fl)
	})

	fs.StringVar(&o.ProcRoot, "proc-root", o.ProcRoot, "the mount point of procfs")
	fs.StringVar(&o.SysRoot, "sys-root", o.SysRoot, "the mount point of sysfs")

	o.metricsOptions.AddFlags(fs)
	o.logsOptions.AddFlags(fs)
}

// Validate checks the options before they are applied.
func (o *GenericOptions) Validate() error {
	var errList []error
	if o.ProcRoot == "" {
		errList = append(errList, fmt.Errorf("proc-root must not be empty"))
	}
	if o.SysRoot == "" {
		errList = append(errList, fmt.Errorf("sys-root must not be empty"))
	}
	return errors.NewAggregate(errList)
}

// ApplyTo fills up config with options
func (o *GenericOptions) ApplyTo(c *generic.GenericConfiguration) error {
	c.ProcRoot = o.ProcRoot
	c.SysRoot = o.SysRoot

	errList := make([]error, 0, 2)
	errList = append(errList, o.metricsOptions.ApplyTo(c.MetricsConfiguration))
	errList = append(errList, o.logsOptions.ApplyTo())

	return errors.NewAggregate(errList)
}
