// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env implements the lexically nested symbol environment used by
// the IR generator (spec.md §4.2).
package env

import "fmt"

// Info is the binding recorded for a variable name.
type Info struct {
	Type string
	Name string
	Temp bool // true for compiler-generated temporaries
}

// ErrUndefinedVariable is returned by Get when a name is absent in every
// enclosing scope, and surfaced by irgen as a user-facing semantic error
// (spec.md §7, level 3).
type ErrUndefinedVariable struct {
	Name string
}

func (e ErrUndefinedVariable) Error() string {
	return fmt.Sprintf("Undefined variable: %s", e.Name)
}

// ErrRedefinition is returned by Put when name is already bound in the
// current (innermost) scope and overwrite was not requested.
type ErrRedefinition struct {
	Name string
}

func (e ErrRedefinition) Error() string {
	return fmt.Sprintf("%s was redefined", e.Name)
}

// Env is one lexical scope. A nil parent marks the root scope.
type Env struct {
	parent *Env
	vars   map[string]*Info
	order  []string // insertion order, for deterministic .bss/offset layout
}

// New creates a root environment with no parent.
func New() *Env {
	return &Env{vars: make(map[string]*Info)}
}

// Child creates a new scope nested inside e.
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: make(map[string]*Info)}
}

// Bindings returns this scope's own bindings (not its ancestors') in the
// order they were first Put, for callers — package codegen — that need a
// deterministic variable layout.
func (e *Env) Bindings() []*Info {
	out := make([]*Info, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.vars[name])
	}
	return out
}

// Get walks from e up to the root looking for name. It returns nil, false
// only when name is absent in every enclosing scope; a bound nil Info (were
// that ever constructed) would still report ok=true, matching the spec's
// distinction between "unbound" and "bound to an explicit null".
func (e *Env) Get(name string) (*Info, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if info, ok := scope.vars[name]; ok {
			return info, true
		}
	}
	return nil, false
}

// Put binds name to info in e's own scope. It fails with ErrRedefinition if
// name is already bound locally and allowOverwrite is false; shadowing an
// outer scope's binding is always permitted.
func (e *Env) Put(name string, info *Info, allowOverwrite bool) error {
	if _, exists := e.vars[name]; exists && !allowOverwrite {
		return ErrRedefinition{Name: name}
	}
	if _, exists := e.vars[name]; !exists {
		e.order = append(e.order, name)
	}
	e.vars[name] = info
	return nil
}

// Update merges fields from delta into the Info already bound to name in
// e's own scope. It fails if name is not locally bound — Update never
// reaches into an enclosing scope, matching spec.md §4.2.
func (e *Env) Update(name string, delta Info) error {
	info, exists := e.vars[name]
	if !exists {
		return fmt.Errorf("env: update of unbound name %q", name)
	}
	if delta.Type != "" {
		info.Type = delta.Type
	}
	if delta.Name != "" {
		info.Name = delta.Name
	}
	if delta.Temp {
		info.Temp = true
	}
	return nil
}
