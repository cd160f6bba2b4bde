// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir implements the three-address quadruple table that the code
// generation pipeline lowers the sample language's AST into (spec.md §3,
// §4.1). It is the structural analogue of wagon's disasm package: where
// disasm turns structured WebAssembly into a flat, jump-patched
// instruction stream, ir turns a structured AST into a flat, backpatched
// quadruple stream.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the operation a Quadruple performs.
type Op string

// Arithmetic operators. Recognized by the IR generator and the x86
// backend; * / % are accepted here (spec.md §9 O1) even though the x86
// backend documented in package codegen declines to emit them.
const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"
	// OpCopy assigns arg1 to result; arg2 is unused.
	OpCopy Op = "="
	// OpGoto is an unconditional jump; result holds the target index.
	OpGoto Op = "goto"
	// OpIf is the unary boolean jump form (spec.md §3): arg1 is the
	// tested operand, result is the target.
	OpIf Op = "if"
)

// Relops recognized by OpIfRelop, in the fixed vocabulary of spec.md §3.
const (
	RelLT Op = "<"
	RelLE Op = "<="
	RelGT Op = ">"
	RelGE Op = ">="
	RelEQ Op = "=="
	RelNE Op = "!="
)

// OpIfRelop builds the conditional-jump op "if<relop>" for rel, e.g.
// OpIfRelop(RelLT) == "if<".
func OpIfRelop(rel Op) Op {
	return Op("if" + string(rel))
}

// Relop extracts the relational operator from a conditional-jump op of the
// form "if<relop>". ok is false for any other op, including the unary
// OpIf.
func (op Op) Relop() (rel Op, ok bool) {
	s := string(op)
	if !strings.HasPrefix(s, "if") || s == "if" {
		return "", false
	}
	return Op(s[2:]), true
}

// IsJump reports whether op is goto or any conditional jump (unary or
// relational); jump ops are the only ones whose Result is an instruction
// index rather than a variable/constant.
func (op Op) IsJump() bool {
	return op == OpGoto || op == OpIf || strings.HasPrefix(string(op), "if")
}

// Quadruple is one three-address IR instruction (op, arg1, arg2, result).
// Per invariant Q1, Op/Arg1/Arg2 never change after Append; Result may be
// mutated exactly once, and only via QTable.Patch.
type Quadruple struct {
	Op   Op
	Arg1 string
	Arg2 string
	// Result is nil until resolved. For jumps it becomes the decimal
	// string of a target instruction index; for everything else it is
	// the destination operand, set at construction time and never
	// patched.
	Result *string
}

// resolvedResult returns the Result string, or "?" if unset — used by
// String so an unpatched quadruple still renders instead of panicking.
func (q Quadruple) resolvedResult() string {
	if q.Result == nil {
		return "?"
	}
	return *q.Result
}

// String renders a quadruple the way the original implementation's
// Quadruple.__str__ did (SPEC_FULL.md §9): "goto L<n>", "if a <relop> b
// goto L<n>", or "result = arg1 [op arg2]". This is a debugging aid used
// by QTable.String and `quadcc dump-ir`; it is not part of the core's
// emission contract.
func (q Quadruple) String() string {
	if q.Op == OpGoto {
		return "goto L" + q.resolvedResult()
	}
	if rel, ok := q.Op.Relop(); ok {
		return fmt.Sprintf("if %s %s %s goto L%s", q.Arg1, rel, q.Arg2, q.resolvedResult())
	}
	if q.Op == OpIf {
		return fmt.Sprintf("if %s goto L%s", q.Arg1, q.resolvedResult())
	}
	line := q.resolvedResult() + " = " + q.Arg1
	if q.Op != OpCopy {
		line += " " + string(q.Op) + " " + q.Arg2
	}
	return line
}

// IsConstant reports whether operand v is an integer literal rather than a
// variable/temporary reference, recovered by inspection per spec.md §3.
func IsConstant(v string) bool {
	_, err := strconv.Atoi(v)
	return err == nil
}
