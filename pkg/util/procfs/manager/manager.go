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

// ProcFSManager reads the procfs sources used for irq balancing and
// applies irq affinity.
type ProcFSManager interface {
	// CPUInfoLines returns the lines of /proc/cpuinfo.
	CPUInfoLines() ([]string, error)
	// InterruptLines returns the lines of /proc/interrupts.
	InterruptLines() ([]string, error)
	// SetAffinity writes a hex mask to /proc/irq/<irq>/smp_affinity if it
	// differs from the current one, and reports whether it was written.
	SetAffinity(irq int, mask string) (bool, error)
}
