// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quadcc/quadcc/env"
	"github.com/quadcc/quadcc/ir"
)

// jccTable maps a relop to the conditional jump that branches when the
// comparison holds, per spec.md §4.5.
var jccTable = map[ir.Op]string{
	ir.RelLT: "jl",
	ir.RelLE: "jle",
	ir.RelGT: "jg",
	ir.RelGE: "jge",
	ir.RelEQ: "jz",
	ir.RelNE: "jnz",
}

// Generate translates the whole of table, using the top-level bindings
// recorded in root, into a complete AT&T-syntax assembly listing
// (spec.md §4.5). It either returns the full module text or an error; no
// partial output is ever produced (spec.md §7).
func Generate(table *ir.QTable, root *env.Env, log *logrus.Logger) ([]string, error) {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel + 1)
	}

	var namedVars []string
	tempOffset := make(map[string]int)
	offset := 4
	for _, info := range root.Bindings() {
		if info.Temp {
			tempOffset[info.Name] = offset
			offset += 4
		} else {
			namedVars = append(namedVars, info.Name)
		}
	}

	blocks, targetMap := table.Partition()
	globalPreserve := make(map[Register]bool)

	var body []string
	for _, blk := range blocks {
		log.WithField("block", blk.ID).Debug("allocating basic block")
		bs := newBlockState(namedVars, tempOffset, targetMap, table.Len(), log)
		if err := bs.run(blk, blk.Instructions(table)); err != nil {
			return nil, errors.Wrapf(err, "codegen: block %d", blk.ID)
		}
		body = append(body, fmt.Sprintf("L%d:", blk.ID))
		body = append(body, bs.lines...)
		for r := range bs.preserve {
			globalPreserve[r] = true
		}
	}
	body = append(body, "LEND:")

	var out []string
	out = append(out, ".bss")
	for _, v := range namedVars {
		out = append(out, fmt.Sprintf("    .lcomm %s, 4", v))
	}
	out = append(out,
		".text",
		"_start:",
		"    call main",
		"    movl $1, %eax",
		"    movl $0, %ebx",
		"    int $0x80",
		"    hlt",
		"main:",
	)
	var preserveOrder []Register
	for _, r := range regPool {
		if globalPreserve[r] {
			preserveOrder = append(preserveOrder, r)
		}
	}
	for _, r := range preserveOrder {
		out = append(out, fmt.Sprintf("    pushl %%%s", r))
	}
	out = append(out, "    pushl %ebp", "    movl %esp, %ebp")
	if len(tempOffset) > 0 {
		out = append(out, fmt.Sprintf("    subl $%d, %%esp", 4*len(tempOffset)))
	}
	out = append(out, body...)
	out = append(out, "    movl %ebp, %esp", "    popl %ebp")
	for i := len(preserveOrder) - 1; i >= 0; i-- {
		out = append(out, fmt.Sprintf("    popl %%%s", preserveOrder[i]))
	}
	out = append(out, "    ret")
	return out, nil
}

// blockState is the per-basic-block allocator: register/address
// descriptors reset at block entry (spec.md §4.5) and discarded at block
// exit, plus the assembly lines accumulated for this block.
type blockState struct {
	registers map[Register]*RegisterDescriptor
	address   map[string]*AddressDescriptor
	namedVars []string
	targetMap map[int]int
	tableLen  int
	lines     []string
	preserve  map[Register]bool
	log       *logrus.Logger
}

func newBlockState(namedVars []string, tempOffset map[string]int, targetMap map[int]int, tableLen int, log *logrus.Logger) *blockState {
	bs := &blockState{
		registers: make(map[Register]*RegisterDescriptor, len(regPool)),
		address:   make(map[string]*AddressDescriptor),
		namedVars: namedVars,
		targetMap: targetMap,
		tableLen:  tableLen,
		preserve:  make(map[Register]bool),
		log:       log,
	}
	for _, r := range regPool {
		bs.registers[r] = newRegisterDescriptor(r)
	}
	for _, v := range namedVars {
		bs.address[v] = newAddressDescriptor(0)
	}
	for t, off := range tempOffset {
		bs.address[t] = newAddressDescriptor(off)
	}
	return bs
}

func (b *blockState) emitf(format string, args ...interface{}) {
	b.lines = append(b.lines, "    "+fmt.Sprintf(format, args...))
}

func (b *blockState) labelFor(target int) string {
	if target >= b.tableLen {
		return "LEND"
	}
	return fmt.Sprintf("L%d", b.targetMap[target])
}

// run lowers every quadruple of a basic block into AT&T assembly.
func (b *blockState) run(blk ir.BasicBlock, quads []ir.Quadruple) error {
	for i, q := range quads {
		last := i == len(quads)-1
		switch {
		case q.Op == ir.OpGoto:
			if !last {
				return fmt.Errorf("codegen: goto not last instruction of block %d", blk.ID)
			}
			target, err := jumpTarget(q)
			if err != nil {
				return err
			}
			if err := b.flushBlock(); err != nil {
				return err
			}
			b.emitf("jmp %s", b.labelFor(target))

		case q.Op.IsJump():
			rel, ok := q.Op.Relop()
			if !ok {
				return ErrUnsupportedOp{Op: string(q.Op)}
			}
			if !last {
				return fmt.Errorf("codegen: conditional jump not last instruction of block %d", blk.ID)
			}
			target, err := jumpTarget(q)
			if err != nil {
				return err
			}
			aText := b.materialize(q.Arg1, q.Arg2)
			bText := b.materialize(q.Arg2, q.Arg1)
			if err := b.flushBlock(); err != nil {
				return err
			}
			b.emitf("cmpl %s, %s", bText, aText)
			cc, ok := jccTable[rel]
			if !ok {
				return fmt.Errorf("codegen: unrecognized relop %q", rel)
			}
			b.emitf("%s %s", cc, b.labelFor(target))

		case q.Op == ir.OpCopy:
			b.emitAssign(q)

		case q.Op == ir.OpAdd:
			b.emitArith(q, "addl")

		case q.Op == ir.OpSub:
			b.emitArith(q, "subl")

		case q.Op == ir.OpMul, q.Op == ir.OpDiv, q.Op == ir.OpMod:
			return ErrUnsupportedOp{Op: string(q.Op)}

		default:
			return fmt.Errorf("codegen: unrecognized operator %q", q.Op)
		}
	}
	if len(quads) == 0 || !quads[len(quads)-1].Op.IsJump() {
		// Falls through to the next block (or LEND); stale register
		// contents must still reach their home before control leaves.
		if err := b.flushBlock(); err != nil {
			return err
		}
	}
	return nil
}

func jumpTarget(q ir.Quadruple) (int, error) {
	if q.Result == nil {
		return 0, fmt.Errorf("codegen: unresolved jump target")
	}
	var target int
	if _, err := fmt.Sscanf(*q.Result, "%d", &target); err != nil {
		return 0, errors.Wrapf(err, "codegen: malformed jump target %q", *q.Result)
	}
	return target, nil
}

// emitAssign lowers `result = arg1` (spec.md §4.5 "="): load arg1 into some
// register, then re-tag that register as holding result alone; arg1's
// address descriptor drops the register. No store is issued for arg1.
func (b *blockState) emitAssign(q ir.Quadruple) {
	reg := b.materializeForced(q.Arg1, "")
	b.retag(reg, *q.Result)
}

// emitArith lowers `result = arg1 <op> arg2`. arg1 is always materialized
// into a concrete register (the destination of the AT&T instruction);
// arg2 may be folded into an immediate. arg1's prior value is stored first
// if overwriting it would otherwise lose the only copy.
func (b *blockState) emitArith(q ir.Quadruple, mnemonic string) {
	ra := b.materializeForced(q.Arg1, q.Arg2)
	src := b.materialize(q.Arg2, q.Arg1)
	b.preserveIfLost(q.Arg1, ra)
	b.emitf("%s %s, %%%s", mnemonic, src, ra)
	b.retag(ra, *q.Result)
}

// flushBlock stores every named (non-temp) variable whose authoritative
// value is only register-resident back to its .bss home. Temps are
// deliberately exempt (spec.md §4.5 "End-of-block flush"): the lowering
// rules never let a temp's live range cross a block boundary.
func (b *blockState) flushBlock() error {
	for _, v := range b.namedVars {
		addr := b.address[v]
		if addr.Memory {
			continue
		}
		if len(addr.Registers) == 0 {
			return ErrNoHome{Var: v}
		}
		reg := firstInPool(addr.Registers)
		b.emitStore(reg, v)
	}
	return nil
}

// materialize resolves v into an operand string suitable as an instruction
// source: an immediate for constants, or a loaded register otherwise
// (spec.md §4.5 register selection rule 1). other is the instruction's
// other operand, used to break the "v == other" spill-cost tie.
func (b *blockState) materialize(v, other string) string {
	if v == "" {
		return ""
	}
	if ir.IsConstant(v) {
		return "$" + v
	}
	reg := b.pickRegister(v, other, false)
	b.markPreserve(reg)
	b.ensureLoaded(v, reg)
	return "%" + string(reg)
}

// materializeForced is like materialize but always returns a concrete
// register, even for a constant operand — used where the emitted
// instruction requires a register destination (the "=" source and
// arithmetic's first operand).
func (b *blockState) materializeForced(v, other string) Register {
	reg := b.pickRegister(v, other, true)
	b.markPreserve(reg)
	b.ensureLoaded(v, reg)
	return reg
}

func (b *blockState) markPreserve(reg Register) {
	if b.registers[reg].Preserve {
		b.preserve[reg] = true
	}
}

// pickRegister implements spec.md §4.5's register-selection algorithm.
func (b *blockState) pickRegister(v, other string, force bool) Register {
	if !force && (v == "" || ir.IsConstant(v)) {
		return ""
	}
	if !ir.IsConstant(v) {
		if addr, ok := b.address[v]; ok && len(addr.Registers) > 0 {
			return firstInPool(addr.Registers)
		}
	}
	for _, r := range regPool {
		if len(b.registers[r].Vars) == 0 {
			return r
		}
	}
	best, bestCost := regPool[0], math.MaxInt32
	for _, r := range regPool {
		if cost := b.spillCost(r, v, other); cost < bestCost {
			best, bestCost = r, cost
		}
	}
	return best
}

// spillCost counts how many variables currently in r would become
// unreachable if r were reused for v: those whose only copy is in r and
// whose memory is stale. Per spec.md §4.5, if v and other are the same
// non-constant variable, it is not counted against its own register.
func (b *blockState) spillCost(r Register, v, other string) int {
	cost := 0
	for _, name := range sortedVars(b.registers[r].Vars) {
		addr := b.address[name]
		if addr.Memory || len(addr.Registers) != 1 {
			continue
		}
		if v == other && name == v && !ir.IsConstant(v) && !ir.IsConstant(other) {
			continue
		}
		cost++
	}
	return cost
}

// ensureLoaded issues a load of v into reg unless v is already resident
// there (constants are always (re)loaded — they are never "bound").
func (b *blockState) ensureLoaded(v string, reg Register) {
	if ir.IsConstant(v) {
		b.load(v, reg)
		return
	}
	if !b.registers[reg].Vars[v] {
		b.load(v, reg)
	}
}

// load clears reg (spilling anything it held that would otherwise be
// lost), then brings v's value into it.
func (b *blockState) load(v string, reg Register) {
	b.clearRegister(reg)
	if ir.IsConstant(v) {
		b.emitf("movl $%s, %%%s", v, reg)
		return
	}
	b.emitf("movl %s, %%%s", b.addrOf(v), reg)
	b.bind(reg, v)
}

// clearRegister evicts every variable currently bound to reg: those that
// would otherwise be lost are stored to memory first.
func (b *blockState) clearRegister(reg Register) {
	for _, v := range sortedVars(b.registers[reg].Vars) {
		addr := b.address[v]
		if !addr.Memory && len(addr.Registers) == 1 {
			b.emitStore(reg, v)
		}
		b.unbind(reg, v)
	}
}

// preserveIfLost stores v if reg is its only valid copy, before reg is
// about to be overwritten for a different variable.
func (b *blockState) preserveIfLost(v string, reg Register) {
	if v == "" || ir.IsConstant(v) {
		return
	}
	addr := b.address[v]
	if addr.Memory || len(addr.Registers) != 1 {
		return
	}
	b.emitStore(reg, v)
}

// retag replaces reg's occupant set wholesale with result, per spec.md
// §4.5's "=" and "+/-" rules: the register now holds the freshly computed
// value and nothing else.
func (b *blockState) retag(reg Register, result string) {
	for _, v := range sortedVars(b.registers[reg].Vars) {
		delete(b.address[v].Registers, reg)
	}
	b.registers[reg].Vars = map[string]bool{result: true}
	offset := 0
	if prior, ok := b.address[result]; ok {
		offset = prior.Offset
	}
	b.address[result] = &AddressDescriptor{
		Registers: map[Register]bool{reg: true},
		Memory:    false,
		Offset:    offset,
	}
}

func (b *blockState) bind(reg Register, v string) {
	b.registers[reg].Vars[v] = true
	b.address[v].Registers[reg] = true
}

func (b *blockState) unbind(reg Register, v string) {
	delete(b.registers[reg].Vars, v)
	delete(b.address[v].Registers, reg)
}

// addrOf renders v's memory operand: a stack slot for temps, the bare
// .bss symbol for named variables.
func (b *blockState) addrOf(v string) string {
	if off := b.address[v].Offset; off > 0 {
		return fmt.Sprintf("-%d(%%ebp)", off)
	}
	return v
}

func (b *blockState) emitStore(reg Register, v string) {
	b.emitf("movl %%%s, %s", reg, b.addrOf(v))
	b.address[v].Memory = true
}

func firstInPool(set map[Register]bool) Register {
	for _, r := range regPool {
		if set[r] {
			return r
		}
	}
	return ""
}

func sortedVars(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
