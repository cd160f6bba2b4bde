// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONAssign(t *testing.T) {
	input := []byte(`{
		"defs": [{"name": "i", "type": "int"}],
		"body": {"kind": "assign", "target": {"kind": "symbol", "name": "i"}, "right": {"kind": "const", "value": "0"}}
	}`)
	prog, err := ParseJSON(input)
	require.NoError(t, err)
	require.Len(t, prog.Defs, 1)
	assert.Equal(t, "i", prog.Defs[0].Name)
	require.NotNil(t, prog.Body)
	assert.Equal(t, KindAssign, prog.Body.Kind)
	assert.Equal(t, "i", prog.Body.Target.Name)
	assert.Equal(t, "0", prog.Body.Right.Value)
}

func TestParseJSONUnknownKind(t *testing.T) {
	_, err := ParseJSON([]byte(`{"body": {"kind": "bogus"}}`))
	assert.Error(t, err)
}

func TestParseJSONNilBody(t *testing.T) {
	prog, err := ParseJSON([]byte(`{"defs": []}`))
	require.NoError(t, err)
	assert.Nil(t, prog.Body)
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON([]byte(`not json`))
	assert.Error(t, err)
}
