// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPartitionScenario6 is the basic-block partition scenario: a 6
// instruction table where instruction 2 is `if< … goto 5` and instruction
// 5 is its target must split into [0,2) [2,3) [3,5) [5,6).
func TestPartitionScenario6(t *testing.T) {
	table := NewQTable()
	table.Append(Quadruple{Op: OpCopy, Arg1: "0", Result: strp("i")})          // 0
	table.Append(Quadruple{Op: OpAdd, Arg1: "i", Arg2: "1", Result: strp("t1")}) // 1
	table.Append(Quadruple{Op: OpIfRelop(RelLT), Arg1: "i", Arg2: "10", Result: strp("5")}) // 2
	table.Append(Quadruple{Op: OpAdd, Arg1: "i", Arg2: "1", Result: strp("t2")}) // 3
	table.Append(Quadruple{Op: OpGoto, Result: strp("2")})                     // 4
	table.Append(Quadruple{Op: OpCopy, Arg1: "i", Result: strp("j")})          // 5

	blocks, targetMap := table.Partition()
	require.Len(t, blocks, 4)

	want := []BasicBlock{
		{ID: 0, Start: 0, End: 2},
		{ID: 1, Start: 2, End: 3},
		{ID: 2, Start: 3, End: 5},
		{ID: 3, Start: 5, End: 6},
	}
	if diff := cmp.Diff(want, blocks); diff != "" {
		t.Errorf("block partition mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, targetMap[5])
}

func TestPartitionEmptyTable(t *testing.T) {
	table := NewQTable()
	blocks, targetMap := table.Partition()
	assert.Empty(t, blocks)
	assert.Empty(t, targetMap)
}

// TestPartitionIdempotent covers property P6: partitioning a table twice
// (no mutation occurs in between) yields identical block ranges.
func TestPartitionIdempotent(t *testing.T) {
	table := NewQTable()
	table.Append(Quadruple{Op: OpGoto, Result: strp("0")})

	first, _ := table.Partition()
	second, _ := table.Partition()
	assert.Equal(t, first, second)
}
