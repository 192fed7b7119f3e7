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

//go:build !linux && !darwin

package fsops

import (
	"os"
	"time"
)

// 🕐 Times extracts the access and modification times from a FileInfo.
// Platforms without a portable access time fall back to the modification
// time for both values.
func Times(info os.FileInfo) (atime, mtime time.Time) {
	mtime = info.ModTime()
	return mtime, mtime
}
