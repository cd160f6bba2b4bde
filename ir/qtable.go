// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle is an opaque reference to a quadruple slot whose Result has not
// yet been resolved. It replaces the original design's convention of
// mutating Quadruple.Result directly (spec.md §9 "Backpatching"): lowering
// rules thread Handles upward instead of touching QTable internals.
type Handle int

// QTable is an append-only sequence of quadruples, per spec.md §3/§4.1.
// It grows during IR generation and is read-only during codegen.
type QTable struct {
	quads []Quadruple
}

// NewQTable returns an empty table.
func NewQTable() *QTable {
	return &QTable{}
}

// Append adds q to the table and returns the Handle identifying its slot,
// which doubles as the instruction index for jump targets and leader
// computation.
func (t *QTable) Append(q Quadruple) Handle {
	t.quads = append(t.quads, q)
	return Handle(len(t.quads) - 1)
}

// At returns the quadruple at index i.
func (t *QTable) At(i int) Quadruple {
	return t.quads[i]
}

// Len returns the number of quadruples appended so far.
func (t *QTable) Len() int {
	return len(t.quads)
}

// NextIndex returns the index the next Append'd quadruple will receive.
func (t *QTable) NextIndex() int {
	return len(t.quads)
}

// Patch resolves the Result of the quadruple identified by h to target,
// encoded as a decimal string naming an instruction index (invariant Q2).
// It returns an error if h is out of range or already resolved — per
// spec.md §9 property P9, patching an already-resolved target is rejected,
// never a silent no-op.
func (t *QTable) Patch(h Handle, target int) error {
	idx := int(h)
	if idx < 0 || idx >= len(t.quads) {
		return fmt.Errorf("ir: patch: handle %d out of range (len=%d)", idx, len(t.quads))
	}
	q := &t.quads[idx]
	if q.Result != nil {
		return fmt.Errorf("ir: patch: handle %d already resolved to %s", idx, *q.Result)
	}
	s := strconv.Itoa(target)
	q.Result = &s
	return nil
}

// PatchAll resolves every handle in hs to target, stopping at the first
// error.
func (t *QTable) PatchAll(hs []Handle, target int) error {
	for _, h := range hs {
		if err := t.Patch(h, target); err != nil {
			return err
		}
	}
	return nil
}

// AllResolved reports whether every jump quadruple in the table has a
// non-nil Result (spec.md §8 P1). Used by tests and by irgen as a
// post-generation sanity check.
func (t *QTable) AllResolved() bool {
	for _, q := range t.quads {
		if q.Op.IsJump() && q.Result == nil {
			return false
		}
	}
	return true
}

// String renders the whole table the way the original implementation's
// QTable.__str__ did: one line per quadruple, with "L<n>:" labels spliced
// in front of any instruction that is the target of some jump
// (SPEC_FULL.md §9). This is a debugging aid for `quadcc dump-ir`, not
// part of the emission contract.
func (t *QTable) String() string {
	lines := make([]string, len(t.quads))
	labels := make(map[int]bool)
	for _, q := range t.quads {
		if q.Op.IsJump() && q.Result != nil {
			if target, err := strconv.Atoi(*q.Result); err == nil {
				labels[target] = true
			}
		}
	}
	for i, q := range t.quads {
		lines[i] = "        " + q.String()
	}
	var out []string
	for i, line := range lines {
		if labels[i] {
			out = append(out, fmt.Sprintf("L%d:", i))
		}
		out = append(out, line)
	}
	if labels[len(t.quads)] {
		out = append(out, fmt.Sprintf("L%d:", len(t.quads)))
	}
	return strings.Join(out, "\n")
}
