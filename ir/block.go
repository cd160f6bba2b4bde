// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"sort"
	"strconv"
)

// BasicBlock is a contiguous half-open range [Start, End) of a QTable such
// that control enters only at Start and leaves only at End-1 (spec.md §3).
type BasicBlock struct {
	ID    int
	Start int
	End   int
}

// Instructions returns the quadruples covered by b, in order.
func (b BasicBlock) Instructions(t *QTable) []Quadruple {
	out := make([]Quadruple, 0, b.End-b.Start)
	for i := b.Start; i < b.End; i++ {
		out = append(out, t.At(i))
	}
	return out
}

func (b BasicBlock) String() string {
	return "block " + strconv.Itoa(b.ID)
}

// Partition computes the basic-block decomposition of t (spec.md §4.1):
//
//  1. Index 0 is a leader.
//  2. The target of every jump is a leader, if within the table.
//  3. The instruction immediately following any jump is a leader.
//
// It returns the blocks in order together with a map from every leader
// instruction index to the ID of the block it starts — the "target map"
// that codegen uses to turn a quadruple-index jump target into a label.
func (t *QTable) Partition() ([]BasicBlock, map[int]int) {
	if t.Len() == 0 {
		return nil, map[int]int{}
	}

	leaderSet := map[int]bool{0: true}
	for i, q := range t.quads {
		if !q.Op.IsJump() {
			continue
		}
		if q.Result != nil {
			if target, err := strconv.Atoi(*q.Result); err == nil && target < t.Len() {
				leaderSet[target] = true
			}
		}
		if i+1 < t.Len() {
			leaderSet[i+1] = true
		}
	}

	leaders := make([]int, 0, len(leaderSet))
	for l := range leaderSet {
		leaders = append(leaders, l)
	}
	sort.Ints(leaders)

	blocks := make([]BasicBlock, 0, len(leaders))
	targetMap := make(map[int]int, len(leaders))
	for i, start := range leaders {
		end := t.Len()
		if i+1 < len(leaders) {
			end = leaders[i+1]
		}
		id := i
		blocks = append(blocks, BasicBlock{ID: id, Start: start, End: end})
		targetMap[start] = id
	}
	return blocks, targetMap
}
