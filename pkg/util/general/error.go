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

package general

import (
	"github.com/pkg/errors"
)

// common errors
var (
	// ErrSourceUnavailable means a procfs/sysfs source could not be read at all.
	ErrSourceUnavailable     = errors.New("source unavailable")
	ErrTopologyUnavailable   = wrapSentinel(ErrSourceUnavailable, "topology unavailable")
	ErrStatisticsUnavailable = wrapSentinel(ErrSourceUnavailable, "interrupt statistics unavailable")

	// ErrMalformedRecord marks a single cpuinfo block or interrupts line that
	// was dropped; it is only ever logged.
	ErrMalformedRecord = errors.New("malformed record")

	ErrNoCoresAvailable = errors.New("no cores available")
	// ErrNoQueuesMatched is returned when the name filter selected zero queues.
	ErrNoQueuesMatched = errors.New("no interrupt queues matched the name filter")

	ErrAffinityWriteFailed   = errors.New("affinity write failed")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
)

// sentinel is a named error that also matches its parent with errors.Is.
type sentinel struct {
	msg    string
	parent error
}

func (s *sentinel) Error() string { return s.msg }

func (s *sentinel) Unwrap() error { return s.parent }

func wrapSentinel(parent error, msg string) error {
	return &sentinel{msg: msg, parent: parent}
}

// IsSourceUnavailable reports whether err is caused by an unreadable source.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}
