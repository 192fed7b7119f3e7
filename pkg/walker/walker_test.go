// Copyright 2025 walteh LLC
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

package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates a small fixture tree:
//
//	a.txt
//	sub/
//	sub/b.txt
//	sub/deeper/
//	sub/deeper/c.txt
//	.git/
//	.git/config
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deeper", "c.txt"), []byte("c"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("x"), 0644))
	return root
}

func relPaths(entries []Entry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.ToSlash(e.RelPath))
	}
	return paths
}

func TestWalk(t *testing.T) {
	root := writeTree(t)

	entries, err := Walk(root, "", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		".git",
		".git/config",
		"a.txt",
		"sub",
		"sub/b.txt",
		"sub/deeper",
		"sub/deeper/c.txt",
	}, relPaths(entries), "directories should come before their descendants")

	for _, e := range entries {
		assert.Equal(t, filepath.Base(e.RelPath), e.Name, "name should be the base name")
		assert.True(t, filepath.IsAbs(e.AbsPath), "abs path should be absolute")
		assert.False(t, e.ModTime.IsZero(), "mod time should be populated")
	}
}

func TestWalk_IgnoreNames(t *testing.T) {
	root := writeTree(t)

	entries, err := Walk(root, "", Options{IgnoreNames: []string{".git", "b.txt"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a.txt",
		"sub",
		"sub/deeper",
		"sub/deeper/c.txt",
	}, relPaths(entries), "ignored names should be excluded along with their contents")
}

func TestWalk_IgnorePatterns(t *testing.T) {
	root := writeTree(t)

	entries, err := Walk(root, "", Options{IgnorePatterns: []string{"**/*.txt", ".git"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sub",
		"sub/deeper",
	}, relPaths(entries), "patterns should match against the relative path")
}

func TestWalk_RelPrefix(t *testing.T) {
	root := writeTree(t)

	entries, err := Walk(filepath.Join(root, "sub"), "sub", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"sub/b.txt",
		"sub/deeper",
		"sub/deeper/c.txt",
	}, relPaths(entries), "prefix should be joined onto every relative path")
}

func TestWalk_MissingRootFails(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "missing"), "", Options{})
	assert.Error(t, err, "walking a missing root should fail, not return partial results")
}

func TestWalk_InvalidPatternFails(t *testing.T) {
	root := writeTree(t)
	_, err := Walk(root, "", Options{IgnorePatterns: []string{"[invalid"}})
	assert.Error(t, err)
}
