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
	"io"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultCols = 80
	defaultRows = 24
	headerLines = 1

	clearScreen = "\x1b[H\x1b[2J"
	lineBreak   = "\r\n"
)

// TerminalSize reports the current terminal geometry.
type TerminalSize interface {
	Size() (cols, rows int, err error)
}

type fdTerminalSize struct {
	fd int
}

// NewTerminalSize queries the terminal behind fd.
func NewTerminalSize(fd int) TerminalSize {
	return fdTerminalSize{fd: fd}
}

func (t fdTerminalSize) Size() (int, int, error) {
	return term.GetSize(t.fd)
}

// ViewState is the screen geometry and scroll position of one tick.
type ViewState struct {
	Rows         int
	Cols         int
	ScrollOffset int
}

// Visible is the number of data rows fitting under the header.
func (v ViewState) Visible() int {
	if v.Rows <= headerLines {
		return 0
	}
	return v.Rows - headerLines
}

// NextViewState queries the terminal size and clamps the scroll offset of
// prev to the new geometry. The previous geometry, or 80x24, is kept when
// the size cannot be queried.
func NextViewState(prev ViewState, size TerminalSize, total int) ViewState {
	next := prev
	if cols, rows, err := size.Size(); err == nil && cols > 0 && rows > 0 {
		next.Cols, next.Rows = cols, rows
	}
	if next.Cols <= 0 || next.Rows <= 0 {
		next.Cols, next.Rows = defaultCols, defaultRows
	}
	return next.clamp(total)
}

// Scroll moves the offset by delta rows, within bounds.
func (v ViewState) Scroll(delta, total int) ViewState {
	v.ScrollOffset += delta
	return v.clamp(total)
}

func (v ViewState) clamp(total int) ViewState {
	maxOffset := total - v.Visible()
	if maxOffset < 0 {
		maxOffset = 0
	}
	if v.ScrollOffset > maxOffset {
		v.ScrollOffset = maxOffset
	}
	if v.ScrollOffset < 0 {
		v.ScrollOffset = 0
	}
	return v
}

// Render clears the screen and draws the header and the visible rows,
// each truncated to the terminal width.
func Render(w io.Writer, v ViewState, header string, rows []Row) error {
	if _, err := io.WriteString(w, clearScreen+truncate(header, v.Cols)+lineBreak); err != nil {
		return err
	}

	end := v.ScrollOffset + v.Visible()
	if end > len(rows) {
		end = len(rows)
	}
	for i := v.ScrollOffset; i < end; i++ {
		if _, err := fmt.Fprint(w, truncate(FormatRow(rows[i]), v.Cols)+lineBreak); err != nil {
			return err
		}
	}
	return nil
}

// truncate keeps the first cols runes of s.
func truncate(s string, cols int) string {
	if cols <= 0 || utf8.RuneCountInString(s) <= cols {
		return s
	}
	return string([]rune(s)[:cols])
}
