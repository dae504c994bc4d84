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

package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/term"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

const (
	KeyDown     = 'j'
	KeyUp       = 'k'
	KeyPageDown = ' '
	KeyQuit     = 'q'

	// KeyInterrupt is ctrl-c, delivered as a byte while in raw mode.
	KeyInterrupt = 0x03
)

// Monitor periodically samples the interrupt counters and redraws the
// per-cpu activity of every matched queue.
type Monitor struct {
	sampler  *Sampler
	interval time.Duration
	out      io.Writer
	size     TerminalSize
	header   string

	view ViewState
	rows []Row
}

func NewMonitor(sampler *Sampler, interval time.Duration, out io.Writer, size TerminalSize, header string) *Monitor {
	return &Monitor{
		sampler:  sampler,
		interval: interval,
		out:      out,
		size:     size,
		header:   header,
	}
}

// Run draws until ctx is done, keys delivers KeyQuit, or sampling fails.
// A nil keys channel disables keyboard handling.
func (m *Monitor) Run(ctx context.Context, keys <-chan byte) error {
	if m.interval <= 0 {
		return fmt.Errorf("non-positive refresh interval %v", m.interval)
	}

	start, err := m.sampler.Sample()
	if err != nil {
		return err
	}
	prev := start

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if key == KeyQuit || key == KeyInterrupt {
				return nil
			}
			m.view = m.handleKey(key)
		case <-ticker.C:
			curr, err := m.sampler.Sample()
			if err != nil {
				return err
			}
			m.rows = Diff(start, prev, curr)
			prev = curr
			m.view = NextViewState(m.view, m.size, len(m.rows))
		}

		if err := Render(m.out, m.view, m.header, m.rows); err != nil {
			return fmt.Errorf("render: %v", err)
		}
	}
}

func (m *Monitor) handleKey(key byte) ViewState {
	switch key {
	case KeyDown:
		return m.view.Scroll(1, len(m.rows))
	case KeyUp:
		return m.view.Scroll(-1, len(m.rows))
	case KeyPageDown:
		return m.view.Scroll(m.view.Visible(), len(m.rows))
	default:
		return m.view
	}
}

// ReadKeys forwards every byte read from r until it fails.
func ReadKeys(r io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n == 1 {
				keys <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
	return keys
}

// MakeRaw puts the terminal behind fd into raw mode when it is a terminal
// and returns the function restoring it.
func MakeRaw(fd int) (func(), error) {
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := term.Restore(fd, state); err != nil {
			general.Warningf("restore terminal failed: %v", err)
		}
	}, nil
}
