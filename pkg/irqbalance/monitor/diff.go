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
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

type Indicator byte

const (
	// IndicatorChanged means the counter moved since the previous sample.
	IndicatorChanged Indicator = '!'
	// IndicatorActive means the counter moved since start but not lately.
	IndicatorActive Indicator = '+'
	IndicatorIdle   Indicator = '-'
)

// Row is the per-cpu activity of one queue.
type Row struct {
	IRQ         int
	Description string
	Indicators  []Indicator
	// Total is the number of interrupts since the first sample.
	Total uint64
	// Rate is interrupts per second since the previous sample.
	Rate float64
}

// Diff compares curr against prev and start. Queues absent from prev are
// skipped; queues absent from start are measured from prev.
func Diff(start, prev, curr *Snapshot) []Row {
	irqs := lo.Keys(curr.Queues)
	sort.Ints(irqs)

	elapsed := curr.Time.Sub(prev.Time).Seconds()
	rows := make([]Row, 0, len(irqs))
	for _, irq := range irqs {
		c := curr.Queues[irq]
		p, ok := prev.Queues[irq]
		if !ok {
			continue
		}
		s, ok := start.Queues[irq]
		if !ok {
			s = p
		}

		row := Row{IRQ: irq, Description: c.Description, Indicators: make([]Indicator, 0, len(c.Counts))}
		var recent uint64
		for i, count := range c.Counts {
			sinceStart := delta(count, s.Counts, i)
			sinceLast := delta(count, p.Counts, i)

			switch {
			case sinceLast != 0:
				row.Indicators = append(row.Indicators, IndicatorChanged)
			case sinceStart != 0:
				row.Indicators = append(row.Indicators, IndicatorActive)
			default:
				row.Indicators = append(row.Indicators, IndicatorIdle)
			}
			row.Total += sinceStart
			recent += sinceLast
		}
		if elapsed > 0 {
			row.Rate = float64(recent) / elapsed
		}
		rows = append(rows, row)
	}
	return rows
}

// delta returns count minus base[i]. A column missing from base counts from
// zero and a counter that went backwards yields 0.
func delta(count uint64, base []uint64, i int) uint64 {
	if i >= len(base) {
		return count
	}
	if count < base[i] {
		return 0
	}
	return count - base[i]
}

// FormatRow renders a row as
// `[iv <description> @ irq <irq>] ! + - [ti=<total>] [ps=<rate>]`.
func FormatRow(r Row) string {
	indicators := lo.Map(r.Indicators, func(i Indicator, _ int) string {
		return string(i)
	})
	return fmt.Sprintf("[iv %12s @ irq %03d] %s [ti=%10d] [ps=%10.1f]",
		r.Description, r.IRQ, strings.Join(indicators, " "), r.Total, r.Rate)
}
