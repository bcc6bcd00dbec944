// Package hoist lifts declarations out of statement wrappers.
//
// Statements live inside synthetic wrapper functions, so a variable a user
// declares in a statement is local to its wrapper and invisible to code
// compiled later. After each append the hoister reparses the serialized
// buffer, asks a FrontEnd for the declaration statements in the body of
// every wrapper it has not seen yet, and prefixes the owning entry's text
// with those declarations so they land at file scope.
//
// Wrappers are matched to entries by name alone; wrap.ParseName recovers
// the id.
package hoist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/ledger"
	"github.com/roach88/offload/internal/serialize"
	"github.com/roach88/offload/internal/wrap"
)

// Request is one reparse of the serialized buffer.
type Request struct {
	// Source is the buffer text; it has already been written to Path.
	Source string
	Path   string

	// Args is the cached argument list naming the buffer.
	Args []string

	// Targets are the wrapper names to inspect.
	Targets []string
}

// FrontEnd extracts body-level declaration statements from wrappers.
//
// The result maps a target wrapper name to its declarations, each without
// the terminating semicolon. Targets that are missing or declare nothing
// may be omitted.
type FrontEnd interface {
	Extract(ctx context.Context, req Request) (map[string][]string, error)
}

// Result describes one hoist pass.
type Result struct {
	Buffer  string
	Hoisted []uint64
}

// Hoister runs hoist passes and tracks the high-water mark.
type Hoister struct {
	front FrontEnd
	path  string
	args  func() []string
	hwm   uint64
}

// New creates a hoister writing the buffer to path. args supplies the
// cached compile arguments for the front-end; it may be nil.
func New(front FrontEnd, path string, args func() []string) *Hoister {
	if args == nil {
		args = func() []string { return nil }
	}
	return &Hoister{front: front, path: path, args: args}
}

// HighWaterMark returns the largest id already processed.
func (h *Hoister) HighWaterMark() uint64 {
	return h.hwm
}

// Run performs one hoist pass over l.
//
// Entries at or below the high-water mark are never examined again. With
// nothing new the front-end is not consulted and the buffer is written
// unchanged. On error the high-water mark does not move.
func (h *Hoister) Run(ctx context.Context, l *ledger.Ledger) (Result, error) {
	buffer := serialize.Render(l, serialize.LayoutWrapped)
	if err := serialize.WriteFile(h.path, buffer); err != nil {
		return Result{}, err
	}

	mark := h.hwm
	targets := make(map[string]*ir.Entry)
	l.Each(func(e *ir.Entry) bool {
		if e.ID <= h.hwm {
			return true
		}
		if e.ID > mark {
			mark = e.ID
		}
		if e.Kind == ir.KindStatement {
			targets[wrap.Name(e.ID)] = e
		}
		return true
	})
	if len(targets) == 0 {
		h.hwm = mark
		return Result{Buffer: buffer}, nil
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	found, err := h.front.Extract(ctx, Request{
		Source:  buffer,
		Path:    h.path,
		Args:    h.args(),
		Targets: names,
	})
	if err != nil {
		return Result{}, fmt.Errorf("reparse %s: %w", h.path, err)
	}

	var hoisted []uint64
	for name, decls := range found {
		e, ok := targets[name]
		if !ok || len(decls) == 0 {
			continue
		}
		e.Text = Prefix(decls) + e.Source
		hoisted = append(hoisted, e.ID)
	}
	sort.Slice(hoisted, func(i, j int) bool { return hoisted[i] < hoisted[j] })

	if len(hoisted) > 0 {
		buffer = serialize.Render(l, serialize.LayoutWrapped)
		if err := serialize.WriteFile(h.path, buffer); err != nil {
			return Result{}, err
		}
	}
	h.hwm = mark
	return Result{Buffer: buffer, Hoisted: hoisted}, nil
}

// Prefix renders hoisted declarations, one per line.
func Prefix(decls []string) string {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(d)
		b.WriteString(";\n")
	}
	return b.String()
}
