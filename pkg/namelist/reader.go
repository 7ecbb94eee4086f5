// Package namelist is the thin file-access collaborator for Fortran namelist
// input: open a file, locate a named block, read its raw assignments, close.
// It performs no schema-aware validation; interpreting the values against a
// resolved model is the validation package's job.
package namelist

import (
	"fmt"
	"os"
	"strings"
)

// Assignment is one raw `name = values` entry inside a block. Index holds the
// optional 1-based start index list from `name(i, j) = ...` syntax. Values
// are decoded to int64, float64, string, or bool.
type Assignment struct {
	Name   string
	Index  []int
	Values []any
}

// Block is the raw content of one located namelist block in file order.
type Block struct {
	Name        string
	Assignments []Assignment
}

// Handle is an open namelist file. It follows scoped-acquisition discipline:
// callers must Close on every exit path.
type Handle struct {
	path   string
	lines  []string
	cursor int
	block  string
	closed bool
}

// Open reads the namelist file and returns a handle positioned before the
// first block.
func Open(path string) (*Handle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	normalized := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return &Handle{path: path, lines: strings.Split(normalized, "\n"), cursor: -1}, nil
}

// Locate positions the handle at the named block. It reports false when no
// block with that name exists.
func (h *Handle) Locate(name string) bool {
	if h.closed {
		return false
	}
	target := strings.ToLower(strings.TrimSpace(name))
	for i, line := range h.lines {
		trimmed := strings.TrimSpace(stripComment(line))
		if !strings.HasPrefix(trimmed, "&") {
			continue
		}
		blockName := strings.ToLower(strings.Fields(trimmed[1:] + " ")[0])
		if blockName == target {
			h.cursor = i
			h.block = target
			return true
		}
	}
	return false
}

// Read parses the located block's assignments. Locate must succeed first.
func (h *Handle) Read() (Block, error) {
	if h.closed {
		return Block{}, fmt.Errorf("namelist: handle is closed")
	}
	if h.cursor < 0 {
		return Block{}, fmt.Errorf("namelist: no block located")
	}

	var content strings.Builder
	first := strings.TrimSpace(stripComment(h.lines[h.cursor]))
	remainder := strings.TrimSpace(first[len(h.block)+1:])

	terminated := false
	if idx := terminatorIndex(remainder); idx >= 0 {
		remainder = remainder[:idx]
		terminated = true
	}
	content.WriteString(remainder)
	content.WriteString("\n")

	for i := h.cursor + 1; !terminated && i < len(h.lines); i++ {
		line := stripComment(h.lines[i])
		if idx := terminatorIndex(line); idx >= 0 {
			content.WriteString(line[:idx])
			terminated = true
			break
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	if !terminated {
		return Block{}, fmt.Errorf("namelist: block %q is not terminated", h.block)
	}

	assignments, err := parseAssignments(content.String())
	if err != nil {
		return Block{}, fmt.Errorf("namelist: block %q: %w", h.block, err)
	}
	return Block{Name: h.block, Assignments: assignments}, nil
}

// Close releases the handle. Further calls on the handle fail.
func (h *Handle) Close() error {
	if h.closed {
		return fmt.Errorf("namelist: handle already closed")
	}
	h.closed = true
	h.lines = nil
	return nil
}

func stripComment(line string) string {
	inSingle, inDouble := false, false
	for i, r := range line {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '!':
			if !inSingle && !inDouble {
				return line[:i]
			}
		}
	}
	return line
}

// terminatorIndex finds a block-terminating '/' outside quotes, or -1.
func terminatorIndex(line string) int {
	inSingle, inDouble := false, false
	for i, r := range line {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '/':
			if !inSingle && !inDouble {
				return i
			}
		}
	}
	return -1
}
