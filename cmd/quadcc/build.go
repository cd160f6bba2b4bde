// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/quadcc/quadcc/ast"
	"github.com/quadcc/quadcc/codegen"
	"github.com/quadcc/quadcc/irgen"
)

func newBuildCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "build <program.json>",
		Short: "Lower a JSON AST to IR and emit x86 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			ctx, err := irgen.Generate(prog, log)
			if err != nil {
				return errors.Wrap(err, "lowering to IR")
			}
			lines, err := codegen.Generate(ctx.Table, ctx.Root, log)
			if err != nil {
				return errors.Wrap(err, "generating assembly")
			}
			text := ""
			for _, line := range lines {
				text += line + "\n"
			}
			if output == "-" || output == "" {
				_, err = os.Stdout.WriteString(text)
				return err
			}
			return os.WriteFile(output, []byte(text), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file for the assembly listing (\"-\" for stdout)")
	return cmd
}

func loadProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	prog, err := ast.ParseJSON(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return prog, nil
}
