// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadcc/quadcc/env"
	"github.com/quadcc/quadcc/ir"
)

func strp(s string) *string { return &s }

func indexOf(lines []string, needle string) int {
	for i, l := range lines {
		if strings.Contains(l, needle) {
			return i
		}
	}
	return -1
}

// TestGenerateScenario1 matches spec.md §8 Scenario 1: `i = 0` emits a
// store into i's .bss home somewhere in main's body.
func TestGenerateScenario1(t *testing.T) {
	table := ir.NewQTable()
	table.Append(ir.Quadruple{Op: ir.OpCopy, Arg1: "0", Result: strp("i")})

	root := env.New()
	require.NoError(t, root.Put("i", &env.Info{Name: "i", Type: "int"}, false))

	lines, err := Generate(table, root, nil)
	require.NoError(t, err)

	text := strings.Join(lines, "\n")
	assert.Contains(t, text, ".lcomm i, 4")
	assert.Contains(t, text, "movl $0, %eax")
	assert.Contains(t, text, "movl %eax, i")
}

// TestGenerateScenario4CalleeSavePreservation matches spec.md §8 Scenario
// 4: a second simultaneously-live variable lands in ebx, the next empty
// register after eax and the first callee-saved one in the pool, so the
// prologue/epilogue must
// bracket main's body with a matching push/pop pair.
func TestGenerateScenario4CalleeSavePreservation(t *testing.T) {
	table := ir.NewQTable()
	table.Append(ir.Quadruple{Op: ir.OpCopy, Arg1: "1", Result: strp("a")})
	table.Append(ir.Quadruple{Op: ir.OpCopy, Arg1: "2", Result: strp("b")})

	root := env.New()
	require.NoError(t, root.Put("a", &env.Info{Name: "a", Type: "int"}, false))
	require.NoError(t, root.Put("b", &env.Info{Name: "b", Type: "int"}, false))

	lines, err := Generate(table, root, nil)
	require.NoError(t, err)

	push := indexOf(lines, "pushl %ebx")
	pop := indexOf(lines, "popl %ebx")
	firstUse := indexOf(lines, "movl $2, %ebx")
	ret := indexOf(lines, "ret")
	mainLabel := indexOf(lines, "main:")

	require.NotEqual(t, -1, push, "pushl %%ebx must appear")
	require.NotEqual(t, -1, pop, "popl %%ebx must appear")
	assert.Greater(t, push, mainLabel)
	assert.Less(t, push, firstUse, "the preserve push must precede any use of ebx")
	assert.Less(t, pop, ret, "the preserve pop must precede ret")
	assert.Greater(t, pop, firstUse)
}

// TestGenerateScenario5TempFrameAllocation matches spec.md §8 Scenario 5:
// three temporaries require a 12-byte frame, reserved immediately after
// the prologue's movl %esp, %ebp.
func TestGenerateScenario5TempFrameAllocation(t *testing.T) {
	table := ir.NewQTable()
	table.Append(ir.Quadruple{Op: ir.OpAdd, Arg1: "1", Arg2: "2", Result: strp("t1")})
	table.Append(ir.Quadruple{Op: ir.OpAdd, Arg1: "t1", Arg2: "3", Result: strp("t2")})
	table.Append(ir.Quadruple{Op: ir.OpAdd, Arg1: "t2", Arg2: "4", Result: strp("t3")})

	root := env.New()
	require.NoError(t, root.Put("t1", &env.Info{Name: "t1", Temp: true}, false))
	require.NoError(t, root.Put("t2", &env.Info{Name: "t2", Temp: true}, false))
	require.NoError(t, root.Put("t3", &env.Info{Name: "t3", Temp: true}, false))

	lines, err := Generate(table, root, nil)
	require.NoError(t, err)

	setup := indexOf(lines, "movl %esp, %ebp")
	sub := indexOf(lines, "subl $12, %esp")
	require.NotEqual(t, -1, sub)
	assert.Equal(t, setup+1, sub, "the frame reservation must come right after movl %%esp, %%ebp")
}

// TestGenerateUnsupportedOp covers O1: multiplication has no x86 emission
// and must fail the whole compilation, not emit a partial listing.
func TestGenerateUnsupportedOp(t *testing.T) {
	table := ir.NewQTable()
	table.Append(ir.Quadruple{Op: ir.OpMul, Arg1: "2", Arg2: "3", Result: strp("t1")})

	root := env.New()
	require.NoError(t, root.Put("t1", &env.Info{Name: "t1", Temp: true}, false))

	lines, err := Generate(table, root, nil)
	assert.Nil(t, lines)
	assert.Error(t, err)
}

// TestGenerateConditionalJump checks the comparison/jump emission pattern
// and the block labels chosen for both branches.
func TestGenerateConditionalJump(t *testing.T) {
	table := ir.NewQTable()
	table.Append(ir.Quadruple{Op: ir.OpIfRelop(ir.RelLT), Arg1: "i", Arg2: "10", Result: strp("2")})
	table.Append(ir.Quadruple{Op: ir.OpGoto, Result: strp("3")})
	table.Append(ir.Quadruple{Op: ir.OpCopy, Arg1: "1", Result: strp("i")})

	root := env.New()
	require.NoError(t, root.Put("i", &env.Info{Name: "i", Type: "int"}, false))

	lines, err := Generate(table, root, nil)
	require.NoError(t, err)
	text := strings.Join(lines, "\n")
	assert.Contains(t, text, "cmpl $10, %eax")
	assert.Contains(t, text, "jl L2", "the true branch targets instruction 2, the third block's leader")
	assert.Contains(t, text, "jmp LEND", "the false branch's target equals the table length: fall off the end")
}

func TestAddrOfTempVsNamed(t *testing.T) {
	bs := newBlockState(
		[]string{"x"},
		map[string]int{"t1": 4, "t2": 8},
		map[int]int{}, 0, nil,
	)
	assert.Equal(t, "x", bs.addrOf("x"))
	assert.Equal(t, "-4(%ebp)", bs.addrOf("t1"))
	assert.Equal(t, "-8(%ebp)", bs.addrOf("t2"))
}

func TestSpillCostIgnoresSharedOperand(t *testing.T) {
	bs := newBlockState([]string{"x"}, nil, map[int]int{}, 0, nil)
	bs.bind(EAX, "x")
	bs.address["x"].Memory = false

	assert.Equal(t, 0, bs.spillCost(EAX, "x", "x"), "v == other == the register's sole occupant must not count against it")
	assert.Equal(t, 1, bs.spillCost(EAX, "y", "z"), "an unrelated pair must count a dirty sole-copy variable as a real cost")
}

func TestClearRegisterStoresDirtyOnly(t *testing.T) {
	bs := newBlockState([]string{"x", "y"}, nil, map[int]int{}, 0, nil)
	bs.bind(EAX, "x")
	bs.bind(EAX, "y")
	bs.address["x"].Memory = false // dirty, sole copy: must be stored
	bs.address["y"].Memory = true  // already safe: must not be stored

	bs.clearRegister(EAX)

	text := strings.Join(bs.lines, "\n")
	assert.Contains(t, text, "movl %eax, x")
	assert.NotContains(t, text, "movl %eax, y")
	assert.Empty(t, bs.registers[EAX].Vars)
	assert.Empty(t, bs.address["x"].Registers)
	assert.Empty(t, bs.address["y"].Registers)
}

func TestRetagReplacesOccupant(t *testing.T) {
	bs := newBlockState([]string{"a", "r"}, nil, map[int]int{}, 0, nil)
	bs.bind(EAX, "a")

	bs.retag(EAX, "r")

	assert.False(t, bs.registers[EAX].Vars["a"])
	assert.True(t, bs.registers[EAX].Vars["r"])
	assert.Empty(t, bs.address["a"].Registers)
	assert.True(t, bs.address["r"].Registers[EAX])
	assert.False(t, bs.address["r"].Memory)
}

func TestFlushBlockErrorsWithoutHome(t *testing.T) {
	bs := newBlockState([]string{"x"}, nil, map[int]int{}, 0, nil)
	bs.address["x"].Memory = false // no register holds it either

	err := bs.flushBlock()
	assert.IsType(t, ErrNoHome{}, err)
}
