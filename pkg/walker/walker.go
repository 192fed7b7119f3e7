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

// Package walker builds flat manifests of directory trees.
package walker

import (
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/treesync/pkg/fsops"
	"gitlab.com/tozd/go/errors"
)

// 📄 Entry describes one filesystem entry found during a walk.
type Entry struct {
	RelPath string    // Path relative to the walk root (joined with the prefix)
	AbsPath string    // Absolute path on disk
	Name    string    // Base name
	ModTime time.Time // Modification time at walk time
}

// 🔧 Options controls which entries a walk excludes.
type Options struct {
	// IgnoreNames are base names that are silently skipped, along with
	// everything below them for directories.
	IgnoreNames []string

	// IgnorePatterns are doublestar patterns matched against the relative
	// path of each entry.
	IgnorePatterns []string
}

// 🚶 Walk recursively lists root into a flat manifest, depth-first with
// directories before their descendants. relPrefix is prepended to every
// relative path. Any stat or list failure aborts the walk; there are no
// partial results on error.
func Walk(root, relPrefix string, opts Options) ([]Entry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving walk root %s: %w", root, err)
	}

	var entries []Entry
	if err := walkDir(absRoot, relPrefix, opts, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// 🔍 walkDir appends the entries of one directory level, recursing into
// subdirectories immediately after their own entry.
func walkDir(dir, relPrefix string, opts Options, out *[]Entry) error {
	children, err := fsops.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, child := range children {
		name := child.Name()
		if ignoredName(name, opts.IgnoreNames) {
			continue
		}

		relPath := name
		if relPrefix != "" {
			relPath = filepath.Join(relPrefix, name)
		}
		if matched, err := ignoredPattern(relPath, opts.IgnorePatterns); err != nil {
			return err
		} else if matched {
			continue
		}

		absPath := filepath.Join(dir, name)
		info, err := fsops.Lstat(absPath)
		if err != nil {
			return err
		}

		*out = append(*out, Entry{
			RelPath: relPath,
			AbsPath: absPath,
			Name:    name,
			ModTime: info.ModTime(),
		})

		if child.IsDir() {
			if err := walkDir(absPath, relPath, opts, out); err != nil {
				return err
			}
		}
	}

	return nil
}

func ignoredName(name string, ignoreNames []string) bool {
	for _, ignored := range ignoreNames {
		if name == ignored {
			return true
		}
	}
	return false
}

func ignoredPattern(relPath string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, filepath.ToSlash(relPath))
		if err != nil {
			return false, errors.Errorf("matching pattern %q against %s: %w", pattern, relPath, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
