// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen partitions a finished ir.QTable into basic blocks and
// translates each one into AT&T-syntax 32-bit x86 assembly using a
// classical register/address-descriptor allocator (spec.md §4.4, §4.5).
package codegen

// Register names the fixed pool of general-purpose 32-bit registers the
// allocator may assign (spec.md §4.5): eax, ebx, ecx, edx, esi, edi.
type Register string

// The allocatable register pool, in the enumeration order used to break
// ties during spill selection and to keep emitted assembly deterministic.
const (
	EAX Register = "eax"
	EBX Register = "ebx"
	ECX Register = "ecx"
	EDX Register = "edx"
	ESI Register = "esi"
	EDI Register = "edi"
)

var regPool = []Register{EAX, EBX, ECX, EDX, ESI, EDI}

// calleeSaved reports whether reg must be preserved across main's body per
// the cdecl convention this backend targets (spec.md §3): ebx, esi, edi.
var calleeSaved = map[Register]bool{EBX: true, ESI: true, EDI: true}

// RegisterDescriptor tracks which variables a physical register currently
// holds, and whether it is callee-saved (spec.md §3).
type RegisterDescriptor struct {
	Vars     map[string]bool
	Preserve bool
}

func newRegisterDescriptor(reg Register) *RegisterDescriptor {
	return &RegisterDescriptor{Vars: make(map[string]bool), Preserve: calleeSaved[reg]}
}

// AddressDescriptor tracks where a variable's value currently lives: which
// registers hold a copy, whether the authoritative value is still in
// memory, and — for temporaries — the stack-frame offset that is its home
// (spec.md §3).
type AddressDescriptor struct {
	Registers map[Register]bool
	Memory    bool
	Offset    int // 0 for named variables; >0 for temporaries
}

func newAddressDescriptor(offset int) *AddressDescriptor {
	return &AddressDescriptor{Registers: make(map[Register]bool), Memory: true, Offset: offset}
}
