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

// Package symlink materializes symbolic links idempotently.
package symlink

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/treesync/pkg/fsops"
	"gitlab.com/tozd/go/errors"
)

// 🔗 Create makes dest a symlink pointing at source. The operation is
// idempotent: a dest that is already a link to source is left untouched,
// anything else at dest is replaced. A single retry covers the race where
// another actor creates dest between our removal and our link call; any
// other failure is fatal.
func Create(ctx context.Context, source, dest string) error {
	return create(ctx, source, dest, true)
}

func create(ctx context.Context, source, dest string, retry bool) error {
	if err := ctx.Err(); err != nil {
		return errors.Errorf("creating link %s: %w", dest, err)
	}

	// Already correct: nothing to do.
	info, err := os.Lstat(dest)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		if existing, err := ResolveTarget(dest); err == nil && existing == absTarget(source) {
			return nil
		}
	} else if err != nil && !os.IsNotExist(err) {
		return errors.Errorf("inspecting existing link %s: %w", dest, err)
	}

	// Clear whatever is in the way. A missing dest is fine.
	if err := fsops.Remove(dest); err != nil {
		return err
	}

	target, err := linkTarget(source, dest)
	if err != nil {
		return err
	}

	if err := fsops.Symlink(target, dest); err != nil {
		if fsops.IsAlreadyExists(err) && retry {
			zerolog.Ctx(ctx).Debug().Str("dest", dest).Msg("link creation raced, retrying")
			return create(ctx, source, dest, false)
		}
		return err
	}

	return nil
}

// 🔁 MirrorTarget returns the absolute target a link at dest must have to
// mirror the link at source. A relative target is re-anchored at dest's
// parent directory, so a link into its own tree keeps pointing inside the
// mirrored tree; an absolute target is preserved as-is.
func MirrorTarget(source, dest string) (string, error) {
	raw, err := fsops.Readlink(source)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), nil
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", errors.Errorf("resolving link destination %s: %w", dest, err)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(absDest), raw)), nil
}

// 🔍 ResolveTarget returns the absolute form of the link target stored at
// path. It does not require the target to exist, so dangling links resolve
// deterministically.
func ResolveTarget(path string) (string, error) {
	raw, err := fsops.Readlink(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), nil
	}
	return filepath.Clean(filepath.Join(filepath.Dir(path), raw)), nil
}

func absTarget(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		return filepath.Clean(source)
	}
	return abs
}
