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
	"fmt"
	"regexp"
	"strings"
)

type MatchMode string

const (
	MatchModeSubstring MatchMode = "substring"
	MatchModeRegexp    MatchMode = "regexp"
)

// Matcher selects which interrupt lines take part in a pass.
type Matcher interface {
	Match(line string) bool
	String() string
}

type SubstringMatcher struct {
	Substr string
}

func (m SubstringMatcher) Match(line string) bool {
	return strings.Contains(line, m.Substr)
}

func (m SubstringMatcher) String() string {
	return fmt.Sprintf("%s(%q)", MatchModeSubstring, m.Substr)
}

type PatternMatcher struct {
	Pattern *regexp.Regexp
}

func (m PatternMatcher) Match(line string) bool {
	return m.Pattern.MatchString(line)
}

func (m PatternMatcher) String() string {
	return fmt.Sprintf("%s(%q)", MatchModeRegexp, m.Pattern.String())
}

// NewMatcher builds the matcher for the given mode.
func NewMatcher(mode MatchMode, expr string) (Matcher, error) {
	switch mode {
	case MatchModeSubstring, "":
		return SubstringMatcher{Substr: expr}, nil
	case MatchModeRegexp:
		pattern, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid name filter pattern %q: %v", expr, err)
		}
		return PatternMatcher{Pattern: pattern}, nil
	default:
		return nil, fmt.Errorf("unknown name filter mode %q", mode)
	}
}
