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
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// linkTarget computes the stored link target: relative to dest's parent
// directory, so the link stays valid if the whole tree is moved.
func linkTarget(source, dest string) (string, error) {
	absSource, err := filepath.Abs(source)
	if err != nil {
		return "", errors.Errorf("resolving link source %s: %w", source, err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", errors.Errorf("resolving link destination %s: %w", dest, err)
	}
	rel, err := filepath.Rel(filepath.Dir(absDest), absSource)
	if err != nil {
		return "", errors.Errorf("computing relative link target for %s: %w", dest, err)
	}
	return rel, nil
}
