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

//go:build !windows

package symlink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "sub", "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	require.NoError(t, Create(context.Background(), target, link))

	resolved, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	wantTarget, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, wantTarget, resolved, "link should resolve to the target")
}

func TestCreate_StoresRelativeTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "sub", "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	require.NoError(t, Create(context.Background(), target, link))

	raw, err := os.Readlink(link)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(raw), "stored target should be relative so the tree can be moved")
	assert.Equal(t, filepath.Join("..", "target.txt"), raw)
}

func TestCreate_Idempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	require.NoError(t, Create(context.Background(), target, link))
	before, err := os.Lstat(link)
	require.NoError(t, err)

	require.NoError(t, Create(context.Background(), target, link))
	after, err := os.Lstat(link)
	require.NoError(t, err)

	assert.Equal(t, before.ModTime(), after.ModTime(), "an already-correct link should be left untouched")
}

func TestCreate_ReplacesWrongTarget(t *testing.T) {
	dir := t.TempDir()
	oldTarget := filepath.Join(dir, "old.txt")
	newTarget := filepath.Join(dir, "new.txt")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(oldTarget, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(newTarget, []byte("new"), 0644))
	require.NoError(t, os.Symlink(oldTarget, link))

	require.NoError(t, Create(context.Background(), newTarget, link))

	resolved, err := ResolveTarget(link)
	require.NoError(t, err)
	assert.Equal(t, newTarget, resolved)
}

func TestCreate_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(link, []byte("in the way"), 0644))

	require.NoError(t, Create(context.Background(), target, link))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "regular file in the way should be replaced by a link")
}

func TestCreate_ReplacesExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(link, "nested"), 0755))

	require.NoError(t, Create(context.Background(), target, link))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "directory in the way should be replaced by a link")
}

func TestMirrorTarget_ReanchorsRelativeTarget(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(source, "sub"), 0755))
	require.NoError(t, os.Symlink(filepath.Join("..", "a.txt"), filepath.Join(source, "sub", "link")))

	target, err := MirrorTarget(filepath.Join(source, "sub", "link"), filepath.Join(dest, "sub", "link"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "a.txt"), target,
		"relative targets follow the link into the destination tree")
}

func TestMirrorTarget_PreservesAbsoluteTarget(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.Symlink(outside, filepath.Join(source, "link")))

	target, err := MirrorTarget(filepath.Join(source, "link"), filepath.Join(dest, "link"))
	require.NoError(t, err)
	assert.Equal(t, outside, target)
}

func TestResolveTarget_DanglingLink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("missing.txt", link))

	resolved, err := ResolveTarget(link)
	require.NoError(t, err, "dangling links should still resolve deterministically")
	assert.Equal(t, filepath.Join(dir, "missing.txt"), resolved)
}

func TestCreate_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Create(ctx, filepath.Join(dir, "t"), filepath.Join(dir, "l"))
	assert.Error(t, err)
}
