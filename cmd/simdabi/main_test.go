// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeatures(t *testing.T) {
	out, err := run(t, "features", "--preset", "avx2")
	require.NoError(t, err)
	assert.Contains(t, out, "source:    --preset avx2")
	assert.Contains(t, out, "float32=8")
	assert.Contains(t, out, "presets:")
}

func TestFeaturesYAML(t *testing.T) {
	out, err := run(t, "features", "--preset", "neon", "--yaml")
	require.NoError(t, err)

	var rep struct {
		Features []string       `yaml:"features"`
		MaxLanes map[string]int `yaml:"max_lanes"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	assert.Contains(t, rep.Features, "neon")
	assert.Equal(t, 16, rep.MaxLanes["int8"])
}

func TestResolve(t *testing.T) {
	out, err := run(t, "resolve", "float32", "1", "8", "--preset", "avx2")
	require.NoError(t, err)
	assert.Contains(t, out, "Scalar")
	assert.Contains(t, out, "NativeVector<8>")

	_, err = run(t, "resolve", "float32", "0")
	assert.Error(t, err)
	_, err = run(t, "resolve", "complex64", "4")
	assert.Error(t, err)
}

func TestResolveYAML(t *testing.T) {
	out, err := run(t, "resolve", "int32", "3", "--preset", "scalar", "--yaml")
	require.NoError(t, err)

	var rep resolveReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Shapes, 1)
	assert.Equal(t, "Array<Scalar,3>", rep.Shapes[0].Variant)
	assert.Len(t, rep.Shapes[0].Chunks, 3)
	assert.Equal(t, 64, rep.MaxWidth)
}

func TestResolveProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	doc := "profiles:\n  - name: old-x86\n    base: sse2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := run(t, "resolve", "float64", "2", "--profile", path, "--preset", "old-x86")
	require.NoError(t, err)
	assert.Contains(t, out, "float64 on old-x86")
	assert.Contains(t, out, "NativeVector<2>")

	_, err = run(t, "resolve", "float64", "2", "--profile", filepath.Join(t.TempDir(), "missing.yaml"), "--preset", "x")
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	out, err := run(t, "table", "int16", "8", "--preset", "sse2")
	require.NoError(t, err)
	assert.Contains(t, out, "int16 x 8 on sse2")
	assert.Contains(t, out, "pmullw")

	out, err = run(t, "table", "int16", "8", "--preset", "scalar", "--hw-only")
	require.NoError(t, err)
	assert.NotContains(t, out, "generic")
}

func TestVerify(t *testing.T) {
	out, err := run(t, "verify", "--sets", "sse2,neon", "--kinds", "int32,float32", "--widths", "1,5,8", "--trials", "1")
	require.NoError(t, err)
	assert.Contains(t, out, " 0 mismatches")

	_, err = run(t, "verify", "--kinds", "bogus")
	assert.Error(t, err)
}
