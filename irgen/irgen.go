// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package irgen lowers an ast.Node tree into an ir.QTable under a scoped
// env.Env, performing control-flow backpatching for short-circuit boolean
// expressions, conditionals, and loops (spec.md §4.3).
package irgen

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/quadcc/quadcc/ast"
	"github.com/quadcc/quadcc/env"
	"github.com/quadcc/quadcc/ir"
)

// ErrUnknownBoolOp is returned when a KindBoolOp node carries an Op other
// than "and", "or", "not".
type ErrUnknownBoolOp struct {
	Op string
}

func (e ErrUnknownBoolOp) Error() string {
	return fmt.Sprintf("irgen: unknown bool operator: %s", e.Op)
}

// ErrUnknownArithOp is returned when a KindBinOp node carries an Op outside
// the fixed arithmetic vocabulary of spec.md §3.
type ErrUnknownArithOp struct {
	Op string
}

func (e ErrUnknownArithOp) Error() string {
	return fmt.Sprintf("irgen: unknown arithmetic operator: %s", e.Op)
}

// Context bundles the mutable state of one compilation unit: the fresh-temp
// counter, the QTable being built, and the root environment. Per spec.md §9
// O2/§5, this state is scoped to a Context value rather than held in
// package-level variables, so multiple units compiled in the same process
// never share a temp counter.
type Context struct {
	Table     *ir.QTable
	Root      *env.Env
	tempCount int
	log       *logrus.Logger
}

// NewContext creates a fresh compilation context with its own QTable, root
// environment, and temp counter. log may be nil, in which case a logger
// that drops everything this package logs is used — callers that want
// tracing pass a logrus.Logger configured by the CLI (SPEC_FULL.md §6).
func NewContext(log *logrus.Logger) *Context {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel + 1) // FatalLevel: only Fatal/Panic entries pass, and this package logs neither
	}
	return &Context{
		Table: ir.NewQTable(),
		Root:  env.New(),
		log:   log,
	}
}

// freshTemp allocates the next "t<N>" name for this context.
func (c *Context) freshTemp() string {
	c.tempCount++
	name := fmt.Sprintf("t%d", c.tempCount)
	c.log.WithField("temp", name).Trace("allocated temporary")
	return name
}

// Generate lowers prog into a fresh QTable rooted at an environment seeded
// with prog.Defs, and returns the context (which owns the finished table)
// for inspection. It is the entry point mirroring the original
// IRGenerator.generate: bind top-level definitions, then walk the body.
func Generate(prog *ast.Program, log *logrus.Logger) (*Context, error) {
	c := NewContext(log)
	for _, def := range prog.Defs {
		if err := c.Root.Put(def.Name, &env.Info{Type: def.Type, Name: def.Name}, false); err != nil {
			return nil, err
		}
	}
	if prog.Body != nil {
		if _, _, err := c.lowerStmt(prog.Body, c.Root); err != nil {
			return nil, err
		}
	}
	if !c.Table.AllResolved() {
		return nil, fmt.Errorf("irgen: internal error: unresolved jump remains after generation")
	}
	return c, nil
}

// boolResult carries the two backpatch lists produced by lowering a
// boolean-valued node: instructions whose jump target is still unresolved,
// to be patched to the "condition held" and "condition failed" successors
// respectively (spec.md §4.3).
type boolResult struct {
	trueList  []ir.Handle
	falseList []ir.Handle
}

// lowerStmt lowers a statement-position node (Definition, Assign, Block,
// If, While) which produces no value. It returns (value, isBool, err) so
// callers that mistakenly invoke it on a value-producing node still get a
// usable operand back for Block sequencing's sake; value is "" for true
// statements.
func (c *Context) lowerStmt(n *ast.Node, e *env.Env) (string, bool, error) {
	switch n.Kind {
	case ast.KindDefinition:
		if err := e.Put(n.Name, &env.Info{Type: n.Type, Name: n.Name}, false); err != nil {
			return "", false, err
		}
		return "", false, nil

	case ast.KindAssign:
		val, err := c.lowerExpr(n.Right, e)
		if err != nil {
			return "", false, err
		}
		sym, err := c.resolveSymbol(n.Target, e)
		if err != nil {
			return "", false, err
		}
		c.Table.Append(ir.Quadruple{Op: ir.OpCopy, Arg1: val, Result: strPtr(sym)})
		return sym, false, nil

	case ast.KindBlockSeq:
		if _, _, err := c.lowerStmt(n.First, e); err != nil {
			return "", false, err
		}
		return c.lowerStmt(n.Second, e)

	case ast.KindIf:
		if err := c.lowerIf(n, e); err != nil {
			return "", false, err
		}
		return "", false, nil

	case ast.KindWhile:
		if err := c.lowerWhile(n, e); err != nil {
			return "", false, err
		}
		return "", false, nil

	default:
		// Fall back to value-expression lowering for nodes used directly
		// as statements (e.g. a bare expression statement).
		val, err := c.lowerExpr(n, e)
		return val, false, err
	}
}

// lowerExpr lowers a value-producing node (Const, Symbol, Temp, BinOp,
// Assign) and returns its result operand.
func (c *Context) lowerExpr(n *ast.Node, e *env.Env) (string, error) {
	switch n.Kind {
	case ast.KindConst:
		return n.Value, nil

	case ast.KindSymbol:
		return c.resolveSymbol(n, e)

	case ast.KindDefinition:
		_, _, err := c.lowerStmt(n, e)
		return "", err

	case ast.KindTemp:
		return c.lowerTemp(n, e)

	case ast.KindBinOp:
		return c.lowerBinOp(n, e)

	case ast.KindAssign:
		val, _, err := c.lowerStmt(n, e)
		return val, err

	default:
		return "", fmt.Errorf("irgen: node kind %s is not a value expression", n.Kind)
	}
}

// resolveSymbol looks up n.Name (KindSymbol or KindTemp-as-target) and
// returns its bound name, or env.ErrUndefinedVariable.
func (c *Context) resolveSymbol(n *ast.Node, e *env.Env) (string, error) {
	if n.Kind == ast.KindTemp {
		return c.lowerTemp(n, e)
	}
	info, ok := e.Get(n.Name)
	if !ok {
		return "", env.ErrUndefinedVariable{Name: n.Name}
	}
	return info.Name, nil
}

// lowerTemp allocates (on first encounter) or reuses a fresh temporary.
func (c *Context) lowerTemp(n *ast.Node, e *env.Env) (string, error) {
	if n.Name == "" {
		n.Name = c.freshTemp()
	}
	if _, ok := e.Get(n.Name); !ok {
		if err := e.Put(n.Name, &env.Info{Type: n.Type, Name: n.Name, Temp: true}, false); err != nil {
			return "", err
		}
	}
	return n.Name, nil
}

func (c *Context) lowerBinOp(n *ast.Node, e *env.Env) (string, error) {
	switch ir.Op(n.Op) {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod:
	default:
		return "", ErrUnknownArithOp{Op: n.Op}
	}
	left, err := c.lowerExpr(n.Left, e)
	if err != nil {
		return "", err
	}
	right, err := c.lowerExpr(n.Right, e)
	if err != nil {
		return "", err
	}
	temp := c.freshTemp()
	if err := e.Put(temp, &env.Info{Type: "int", Name: temp, Temp: true}, false); err != nil {
		return "", err
	}
	c.Table.Append(ir.Quadruple{Op: ir.Op(n.Op), Arg1: left, Arg2: right, Result: strPtr(temp)})
	return temp, nil
}

// lowerBool lowers a boolean-valued node (Comparison, BoolOp) and returns
// its true/false backpatch lists, per the table in spec.md §4.3.
func (c *Context) lowerBool(n *ast.Node, e *env.Env) (boolResult, error) {
	switch n.Kind {
	case ast.KindComparison:
		return c.lowerComparison(n, e)
	case ast.KindBoolOp:
		return c.lowerBoolOp(n, e)
	default:
		return boolResult{}, fmt.Errorf("irgen: node kind %s is not a boolean expression", n.Kind)
	}
}

func (c *Context) lowerComparison(n *ast.Node, e *env.Env) (boolResult, error) {
	left, err := c.lowerExpr(n.Left, e)
	if err != nil {
		return boolResult{}, err
	}
	right, err := c.lowerExpr(n.Right, e)
	if err != nil {
		return boolResult{}, err
	}
	trueHandle := c.Table.Append(ir.Quadruple{Op: ir.OpIfRelop(ir.Op(n.Op)), Arg1: left, Arg2: right})
	falseHandle := c.Table.Append(ir.Quadruple{Op: ir.OpGoto})
	return boolResult{trueList: []ir.Handle{trueHandle}, falseList: []ir.Handle{falseHandle}}, nil
}

func (c *Context) lowerBoolOp(n *ast.Node, e *env.Env) (boolResult, error) {
	switch n.Op {
	case "and":
		left, err := c.lowerBool(n.Left, e)
		if err != nil {
			return boolResult{}, err
		}
		if err := c.Table.PatchAll(left.trueList, c.Table.NextIndex()); err != nil {
			return boolResult{}, err
		}
		right, err := c.lowerBool(n.Right, e)
		if err != nil {
			return boolResult{}, err
		}
		return boolResult{
			trueList:  right.trueList,
			falseList: append(left.falseList, right.falseList...),
		}, nil

	case "or":
		left, err := c.lowerBool(n.Left, e)
		if err != nil {
			return boolResult{}, err
		}
		if err := c.Table.PatchAll(left.falseList, c.Table.NextIndex()); err != nil {
			return boolResult{}, err
		}
		right, err := c.lowerBool(n.Right, e)
		if err != nil {
			return boolResult{}, err
		}
		return boolResult{
			trueList:  append(left.trueList, right.trueList...),
			falseList: right.falseList,
		}, nil

	case "not":
		// spec.md §9 O4: the original reads a nonexistent `right` field
		// on a unary node. The corrected rule swaps the single child's
		// lists instead.
		child, err := c.lowerBool(n.Left, e)
		if err != nil {
			return boolResult{}, err
		}
		return boolResult{trueList: child.falseList, falseList: child.trueList}, nil

	default:
		return boolResult{}, ErrUnknownBoolOp{Op: n.Op}
	}
}

func (c *Context) lowerIf(n *ast.Node, e *env.Env) error {
	cond, err := c.lowerBool(n.Cond, e)
	if err != nil {
		return err
	}
	if err := c.Table.PatchAll(cond.trueList, c.Table.NextIndex()); err != nil {
		return err
	}
	if _, _, err := c.lowerStmt(n.Then, e); err != nil {
		return err
	}
	if n.Else != nil {
		gotoElse := c.Table.Append(ir.Quadruple{Op: ir.OpGoto})
		if err := c.Table.PatchAll(cond.falseList, c.Table.NextIndex()); err != nil {
			return err
		}
		if _, _, err := c.lowerStmt(n.Else, e); err != nil {
			return err
		}
		return c.Table.Patch(gotoElse, c.Table.NextIndex())
	}
	return c.Table.PatchAll(cond.falseList, c.Table.NextIndex())
}

func (c *Context) lowerWhile(n *ast.Node, e *env.Env) error {
	before := c.Table.NextIndex()
	cond, err := c.lowerBool(n.Cond, e)
	if err != nil {
		return err
	}
	if err := c.Table.PatchAll(cond.trueList, c.Table.NextIndex()); err != nil {
		return err
	}
	if _, _, err := c.lowerStmt(n.Then, e); err != nil {
		return err
	}
	c.Table.Append(ir.Quadruple{Op: ir.OpGoto, Result: strPtr(fmt.Sprintf("%d", before))})
	return c.Table.PatchAll(cond.falseList, c.Table.NextIndex())
}

func strPtr(s string) *string { return &s }
