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

// Package fsops provides the filesystem primitives used by the sync engine.
// Every function wraps the underlying os error so that callers can classify
// failures with IsNotFound, IsAlreadyExists and IsPermissionDenied.
package fsops

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🚫 ErrUnsupportedEntryKind is returned when an entry is neither a regular
// file, a directory nor a symlink (devices, FIFOs, sockets).
var ErrUnsupportedEntryKind = errors.Base("unsupported entry kind")

// 🔍 IsNotFound reports whether err was caused by a missing entry.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// 🔍 IsAlreadyExists reports whether err was caused by an entry that already
// exists (the transient race the symlink materializer retries on).
func IsAlreadyExists(err error) bool {
	return errors.Is(err, fs.ErrExist)
}

// 🔍 IsPermissionDenied reports whether err was caused by missing permissions.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

// 📊 Lstat stats path without following symlinks.
func Lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, errors.Errorf("lstat %s: %w", path, err)
	}
	return info, nil
}

// 🔍 Exists checks whether path exists (without following symlinks).
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking existence of %s: %w", path, err)
}

// 📂 ReadDir lists the immediate children of a directory.
func ReadDir(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Errorf("reading directory %s: %w", path, err)
	}
	return entries, nil
}

// 📁 MkdirAll creates a directory and any missing parents. Idempotent.
func MkdirAll(path string, mode os.FileMode) error {
	if err := os.MkdirAll(path, mode); err != nil {
		return errors.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// 🗑️ Remove removes path, recursively for directories. Removing a path that
// does not exist is not an error.
func Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// 🔧 Chmod changes the permission bits of path.
func Chmod(path string, mode os.FileMode) error {
	if err := os.Chmod(path, mode.Perm()); err != nil {
		return errors.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// 🕐 Chtimes applies access and modification times to path.
func Chtimes(path string, atime, mtime time.Time) error {
	if err := os.Chtimes(path, atime, mtime); err != nil {
		return errors.Errorf("setting times on %s: %w", path, err)
	}
	return nil
}

// 🔗 Readlink returns the raw target of a symlink.
func Readlink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", errors.Errorf("reading link %s: %w", path, err)
	}
	return target, nil
}

// 🔗 Symlink creates a symlink at dest pointing at target.
func Symlink(target, dest string) error {
	if err := os.Symlink(target, dest); err != nil {
		return errors.Errorf("linking %s -> %s: %w", dest, target, err)
	}
	return nil
}

// 🔗 RealPath resolves path through any symlinks to its canonical form.
func RealPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", path, err)
	}
	return resolved, nil
}

// 📄 CopyFile streams src to dst, creating or truncating dst with the given
// permission mode. Parent directories of dst are created if needed.
func CopyFile(ctx context.Context, src, dst string, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return errors.Errorf("copying %s: %w", src, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file %s: %w", src, err)
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating parent directories for %s: %w", dst, err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Errorf("creating destination file %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := dstFile.Close(); err != nil {
		return errors.Errorf("closing destination file %s: %w", dst, err)
	}

	// O_CREATE is subject to the umask, so apply the mode explicitly.
	if err := os.Chmod(dst, mode.Perm()); err != nil {
		return errors.Errorf("chmod %s: %w", dst, err)
	}

	return nil
}
