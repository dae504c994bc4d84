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

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/procfs/common"
)

const (
	DefaultProcRoot = "/proc"

	CPUInfoFile     = "cpuinfo"
	InterruptsFile  = "interrupts"
	IrqRootPath     = "irq"
	SmpAffinityFile = "smp_affinity"
)

var logger = general.LoggerWithPrefix("procfs", general.LoggingPKGShort)

// maxBufferSize bounds reads of procfs files, whose reported sizes are
// either 0 or 4096 and therefore cannot be trusted.
const maxBufferSize = 1024 * 1024

type manager struct {
	fs       afero.Fs
	procRoot string
}

var _ ProcFSManager = &manager{}

// NewProcFSManager return a manager for procfs mounted at procRoot
func NewProcFSManager(fs afero.Fs, procRoot string) *manager {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	return &manager{fs: fs, procRoot: procRoot}
}

// CPUInfoLines returns the lines of the cpuinfo file of the host.
func (m *manager) CPUInfoLines() ([]string, error) {
	return m.readLines(CPUInfoFile)
}

// InterruptLines returns the lines of the interrupts file of the host.
func (m *manager) InterruptLines() ([]string, error) {
	return m.readLines(InterruptsFile)
}

// SetAffinity applies the hex mask to the given irq.
func (m *manager) SetAffinity(irq int, mask string) (bool, error) {
	if irq <= 0 {
		return false, fmt.Errorf("invalid irq: %d", irq)
	}

	bitmap, err := common.FormatKernelBitmap(mask)
	if err != nil {
		return false, errors.Wrapf(err, "irq %d", irq)
	}

	dir := filepath.Join(m.procRoot, IrqRootPath, strconv.Itoa(irq))
	if exists, err := afero.DirExists(m.fs, dir); err != nil || !exists {
		return false, fmt.Errorf("irq %d does not exist", irq)
	}

	applied, oldData, err := common.InstrumentedWriteFileIfChange(m.fs, dir, SmpAffinityFile, bitmap, common.CompareHexBitmapStrings)
	if err != nil {
		return false, errors.Wrapf(err, "write %s to %s", bitmap, filepath.Join(dir, SmpAffinityFile))
	}
	if applied {
		logger.Infof("apply irq affinity successfully, irq: %v, data: %v, old data: %v", irq, bitmap, string(bytes.TrimSpace([]byte(oldData))))
	}

	return applied, nil
}

func (m *manager) readLines(file string) ([]string, error) {
	path := filepath.Join(m.procRoot, file)
	data, err := ReadFileNoStat(m.fs, path)
	if err != nil {
		logger.Errorf("read %s failed, err: %v", path, err)
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxBufferSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// ReadFileNoStat uses io.ReadAll to read contents of entire file.
// This is similar to afero.ReadFile but without the call to Stat, because
// many files in /proc and /sys report incorrect file sizes (either 0 or 4096).
// Reads a max file size of 1024kB.
func ReadFileNoStat(fs afero.Fs, filename string) ([]byte, error) {
	f, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := io.LimitReader(f, maxBufferSize)
	return io.ReadAll(reader)
}
