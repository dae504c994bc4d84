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

package interrupts

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenInteger
)

// Token is one whitespace separated field of an interrupts line.
type Token struct {
	Kind  TokenKind
	Text  string
	Value uint64
}

// ClassifyToken tells per-cpu counters apart from description text.
func ClassifyToken(s string) Token {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Token{Kind: TokenInteger, Text: s, Value: v}
	}
	return Token{Kind: TokenText, Text: s}
}

const interruptsLiteral = "interrupts"

var chipTypeMarkers = []string{"-edge", "-fasteoi"}

// excludedFromDescription filters out the kernel chip type annotations.
func excludedFromDescription(token string) bool {
	if token == interruptsLiteral {
		return true
	}
	for _, marker := range chipTypeMarkers {
		if strings.Contains(token, marker) {
			return true
		}
	}
	return false
}

// StatisticsProvider returns the raw lines of /proc/interrupts.
type StatisticsProvider interface {
	InterruptLines() ([]string, error)
}

// ParseLine turns one interrupts line into a queue. Lines not matched by m,
// with a non numeric or zero irq label, without counters or without any
// trailing text are rejected.
func ParseLine(line string, m Matcher) (*Queue, bool) {
	if !m.Match(line) {
		return nil, false
	}

	cols := strings.SplitN(line, ":", 2)
	if len(cols) != 2 {
		return nil, false
	}

	irq, err := strconv.Atoi(strings.TrimSpace(cols[0]))
	if err != nil || irq == 0 {
		return nil, false
	}

	q := &Queue{IRQ: irq}
	var (
		texts       int
		description []string
	)
	for _, field := range strings.Fields(cols[1]) {
		token := ClassifyToken(field)
		switch token.Kind {
		case TokenInteger:
			q.Counts = append(q.Counts, token.Value)
		case TokenText:
			texts++
			if !excludedFromDescription(token.Text) {
				description = append(description, token.Text)
			}
		}
	}

	if len(q.Counts) == 0 || texts == 0 {
		return nil, false
	}
	q.Description = strings.Join(description, " ")
	return q, true
}

// CollectQueues parses every line and groups the accepted queues by device.
func CollectQueues(lines []string, m Matcher) *Registry {
	registry := NewRegistry()
	for _, line := range lines {
		q, ok := ParseLine(line, m)
		if !ok {
			if m.Match(line) {
				general.InfofV(5, "drop interrupts line %q: %v", line, general.ErrMalformedRecord)
			}
			continue
		}
		registry.Add(q)
	}
	return registry
}

// LoadRegistry reads the provider and builds the registry from it.
func LoadRegistry(provider StatisticsProvider, m Matcher) (*Registry, error) {
	lines, err := provider.InterruptLines()
	if err != nil {
		return nil, errors.Wrap(general.ErrStatisticsUnavailable, err.Error())
	}
	return CollectQueues(lines, m), nil
}
