// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProgram = `{
	"defs": [{"name": "i", "type": "int"}],
	"body": {"kind": "assign", "target": {"kind": "symbol", "name": "i"}, "right": {"kind": "const", "value": "0"}}
}`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "program.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleProgram), 0o644))
	return path
}

func TestBuildCommandWritesAssembly(t *testing.T) {
	input := writeSample(t)
	output := filepath.Join(t.TempDir(), "out.s")

	cmd := newBuildCmd()
	cmd.SetArgs([]string{input, "-o", output})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), ".lcomm i, 4")
	assert.Contains(t, string(data), "movl $0, %eax")
}

func TestBuildCommandRejectsMissingFile(t *testing.T) {
	cmd := newBuildCmd()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "does-not-exist.json")})
	assert.Error(t, cmd.Execute())
}

func TestDumpIRCommandPrintsQuadruples(t *testing.T) {
	input := writeSample(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	realStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = realStdout }()

	cmd := newDumpIRCmd()
	cmd.SetArgs([]string{input})
	require.NoError(t, cmd.Execute())
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "i = 0")
}
