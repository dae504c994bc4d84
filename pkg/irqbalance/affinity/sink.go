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
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

// Write is one affinity change recorded by DryRunSink.
type Write struct {
	IRQ  int
	Mask string
}

// DryRunSink records writes without touching the kernel.
type DryRunSink struct {
	Writes []Write
}

var _ Sink = &DryRunSink{}

func (d *DryRunSink) SetAffinity(irq int, mask string) (bool, error) {
	d.Writes = append(d.Writes, Write{IRQ: irq, Mask: mask})
	return true, nil
}

// PrivilegeChecker verifies the process may change interrupt routing.
type PrivilegeChecker interface {
	CheckPrivilege() error
}

type rootChecker struct {
	geteuid func() int
}

// NewRootPrivilegeChecker requires an effective uid of 0.
func NewRootPrivilegeChecker() PrivilegeChecker {
	return &rootChecker{geteuid: unix.Geteuid}
}

func (c *rootChecker) CheckPrivilege() error {
	if euid := c.geteuid(); euid != 0 {
		return errors.Wrapf(general.ErrInsufficientPrivilege, "writing irq affinity requires root, effective uid is %d", euid)
	}
	return nil
}
