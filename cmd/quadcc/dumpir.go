// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/quadcc/quadcc/irgen"
)

func newDumpIRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-ir <program.json>",
		Short: "Lower a JSON AST to IR and print the quadruple table",
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
			fmt.Println(ctx.Table.String())
			return nil
		},
	}
}
