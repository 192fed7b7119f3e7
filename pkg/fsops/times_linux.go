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

package fsops

import (
	"os"
	"syscall"
	"time"
)

// 🕐 Times extracts the access and modification times from a FileInfo.
func Times(info os.FileInfo) (atime, mtime time.Time) {
	mtime = info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		// Stat_t fields are 32-bit on some linux targets.
		atime = time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
		return atime, mtime
	}
	return mtime, mtime
}
