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

package generic

// GenericConfiguration holds the configurations shared by every command.
type GenericConfiguration struct {
	// ProcRoot and SysRoot are where procfs and sysfs are mounted, they
	// differ from /proc and /sys when running inside a container.
	ProcRoot string
	SysRoot  string

	*MetricsConfiguration
}

type MetricsConfiguration struct {
	// TextfilePath is where metrics are written in prometheus text format,
	// empty disables them.
	TextfilePath string
}

func NewGenericConfiguration() *GenericConfiguration {
	return &GenericConfiguration{
		MetricsConfiguration: &MetricsConfiguration{},
	}
}
