// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"encoding/json"
	"fmt"
)

// wireNode is the on-disk JSON shape for a Node, used only by cmd/quadcc to
// drive the core without the out-of-scope parser (SPEC_FULL.md §4.9).
type wireNode struct {
	Kind   string    `json:"kind"`
	Value  string    `json:"value,omitempty"`
	Name   string    `json:"name,omitempty"`
	Type   string    `json:"type,omitempty"`
	Op     string    `json:"op,omitempty"`
	Left   *wireNode `json:"left,omitempty"`
	Right  *wireNode `json:"right,omitempty"`
	Target *wireNode `json:"target,omitempty"`
	First  *wireNode `json:"first,omitempty"`
	Second *wireNode `json:"second,omitempty"`
	Cond   *wireNode `json:"cond,omitempty"`
	Then   *wireNode `json:"then,omitempty"`
	Else   *wireNode `json:"else,omitempty"`
}

var kindFromString = map[string]Kind{
	"const":     KindConst,
	"symbol":    KindSymbol,
	"def":       KindDefinition,
	"temp":      KindTemp,
	"binop":     KindBinOp,
	"assign":    KindAssign,
	"block":     KindBlockSeq,
	"cmp":       KindComparison,
	"booleanop": KindBoolOp,
	"if":        KindIf,
	"while":     KindWhile,
}

func (w *wireNode) toNode() (*Node, error) {
	if w == nil {
		return nil, nil
	}
	kind, ok := kindFromString[w.Kind]
	if !ok {
		return nil, fmt.Errorf("ast: unknown node kind %q", w.Kind)
	}
	left, err := w.Left.toNode()
	if err != nil {
		return nil, err
	}
	right, err := w.Right.toNode()
	if err != nil {
		return nil, err
	}
	target, err := w.Target.toNode()
	if err != nil {
		return nil, err
	}
	first, err := w.First.toNode()
	if err != nil {
		return nil, err
	}
	second, err := w.Second.toNode()
	if err != nil {
		return nil, err
	}
	cond, err := w.Cond.toNode()
	if err != nil {
		return nil, err
	}
	then, err := w.Then.toNode()
	if err != nil {
		return nil, err
	}
	els, err := w.Else.toNode()
	if err != nil {
		return nil, err
	}
	return &Node{
		Kind:   kind,
		Value:  w.Value,
		Name:   w.Name,
		Type:   w.Type,
		Op:     w.Op,
		Left:   left,
		Right:  right,
		Target: target,
		First:  first,
		Second: second,
		Cond:   cond,
		Then:   then,
		Else:   els,
	}, nil
}

type wireProgram struct {
	Defs []Definition `json:"defs"`
	Body *wireNode    `json:"body"`
}

// ParseJSON decodes a Program from the CLI's JSON AST surface
// (SPEC_FULL.md §4.9). It is not part of the core's contract; it exists
// solely so cmd/quadcc can exercise the core without the out-of-scope
// upstream parser.
func ParseJSON(data []byte) (*Program, error) {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("ast: invalid json: %w", err)
	}
	body, err := w.Body.toNode()
	if err != nil {
		return nil, err
	}
	return &Program{Defs: w.Defs, Body: body}, nil
}
