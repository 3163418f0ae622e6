// Copyright (c) 2026 John Earle
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

// Package runlock prevents overlapping runs against the same mailbox and
// ledger by holding an advisory lock on a well-known file.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrHeld indicates another process holds the lock.
var ErrHeld = errors.New("another run is already in progress")

// Lock is a held run lock. Release it when the run completes.
type Lock struct {
	path string
	f    *os.File
}

// Acquire takes the run lock without blocking. It returns ErrHeld when a
// concurrent run owns it. The lock is also released by the kernel if the
// process dies, so a crashed run never wedges the next one.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// Record the owner pid for operators inspecting a stuck lock.
	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	return &Lock{path: path, f: f}, nil
}

// Release unlocks and closes the lock file. The file itself is left in
// place; only the advisory lock matters.
func (l *Lock) Release() error {
	if l.f == nil {
		return nil
	}
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		l.f = nil
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	err := l.f.Close()
	l.f = nil
	return err
}
