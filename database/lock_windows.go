//go:build windows

// Copyright 2026 Blink Labs Software
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

package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const lockFileName = "LOCK"

// ErrDataDirLocked is returned when another process holds the data dir
var ErrDataDirLocked = errors.New("data directory is in use by another process")

// dirLock relies on the exclusive create of the lock file, which is
// removed again on release
type dirLock struct {
	path string
}

func acquireDirLock(dataDir string) (*dirLock, error) {
	if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	path := filepath.Join(dataDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, dataDir)
		}
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	_ = f.Close()
	return &dirLock{path: path}, nil
}

func (l *dirLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	return os.Remove(l.path)
}
