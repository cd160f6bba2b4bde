// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command quadcc compiles a JSON-encoded abstract syntax tree for the
// sample language into either a dump of its intermediate representation
// or a complete 32-bit x86 assembly listing (SPEC_FULL.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	log     = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:           "quadcc",
		Short:         "Three-address-code compiler for the sample language",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.TraceLevel)
			} else {
				log.SetLevel(logrus.WarnLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log allocator and IR-generation detail")
	root.AddCommand(newBuildCmd(), newDumpIRCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "quadcc:", err)
		os.Exit(1)
	}
}
