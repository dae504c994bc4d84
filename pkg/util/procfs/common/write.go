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

package common

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

// EqualFunc decides whether the current file content already holds data.
type EqualFunc func(current, data string) bool

// TrimmedEqual compares contents ignoring surrounding whitespace.
func TrimmedEqual(current, data string) bool {
	return strings.TrimSpace(current) == strings.TrimSpace(data)
}

// InstrumentedWriteFileIfChange wraps WriteFileIfChange with timing logs
func InstrumentedWriteFileIfChange(fs afero.Fs, dir, file, data string, equal EqualFunc) (applied bool, oldData string, err error) {
	startTime := time.Now()
	defer func() {
		if applied {
			general.InfofV(4, "write %s to %s, old data %s, cost %v",
				data, filepath.Join(dir, file), strings.TrimSpace(oldData), time.Since(startTime))
		}
	}()

	applied, oldData, err = WriteFileIfChange(fs, dir, file, data, equal)
	return
}

// WriteFileIfChange writes data to the file joined by dir and file
// if new data is not equal to the old data and return the old data.
func WriteFileIfChange(fs afero.Fs, dir, file, data string, equal EqualFunc) (bool, string, error) {
	if equal == nil {
		equal = TrimmedEqual
	}

	path := filepath.Join(dir, file)
	oldData, err := afero.ReadFile(fs, path)
	if err != nil {
		return false, "", err
	}
	oldDataStr := string(oldData)

	if equal(oldDataStr, data) {
		return false, oldDataStr, nil
	}

	if err = afero.WriteFile(fs, path, []byte(data), 0o644); err != nil {
		return false, oldDataStr, err
	}
	return true, oldDataStr, nil
}
