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
	"time"

	"github.com/pkg/errors"

	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/interrupts"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

// Snapshot is one reading of the matched interrupt counters.
type Snapshot struct {
	Time   time.Time
	Queues map[int]*interrupts.Queue
}

type Sampler struct {
	provider interrupts.StatisticsProvider
	matcher  interrupts.Matcher
	now      func() time.Time
}

func NewSampler(provider interrupts.StatisticsProvider, matcher interrupts.Matcher) *Sampler {
	return &Sampler{provider: provider, matcher: matcher, now: time.Now}
}

func (s *Sampler) Sample() (*Snapshot, error) {
	lines, err := s.provider.InterruptLines()
	if err != nil {
		return nil, errors.Wrap(general.ErrStatisticsUnavailable, err.Error())
	}

	snapshot := &Snapshot{Time: s.now(), Queues: make(map[int]*interrupts.Queue)}
	for _, line := range lines {
		if q, ok := interrupts.ParseLine(line, s.matcher); ok {
			snapshot.Queues[q.IRQ] = q
		}
	}
	return snapshot, nil
}
