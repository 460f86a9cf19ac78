package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// LockTimeout is the timeout for acquiring the config file lock.
const LockTimeout = 2 * time.Second

var errLockTimeout = errors.New("lock timeout")

// Save writes the global settings and the accounts registry to Path.
// Settings that came from the project file or the environment are not
// written. Comments in the existing file are not preserved.
func (c *Config) Save() error {
	if c.Path == "" {
		return ErrNoConfigPath
	}

	data, err := json.MarshalIndent(fileData{Settings: c.global, Accounts: c.Accounts}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(c.Path), dirPerms); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	return withLock(c.Path, func() error {
		if err := atomic.WriteFile(c.Path, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		return os.Chmod(c.Path, filePerms)
	})
}

// withLock runs fn while holding an exclusive lock on a sibling
// "<path>.lock" file.
func withLock(path string, fn func() error) error {
	lock, err := acquireLock(path+".lock", LockTimeout)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}

	defer lock.release()

	return fn()
}

type fileLock struct {
	path string
	file *os.File
}

// release removes the lock file while still holding the lock, then unlocks.
func (l *fileLock) release() {
	if l.file != nil {
		_ = os.Remove(l.path)
		_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		_ = l.file.Close()
		l.file = nil
	}
}

// acquireLock takes an exclusive flock on lockPath. If the file is removed
// and recreated by a releasing holder while we wait, the inode check makes
// us retry on the new file.
func acquireLock(lockPath string, timeout time.Duration) (*fileLock, error) {
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: %s", errLockTimeout, lockPath)
		}

		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerms)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}

		var openStat unix.Stat_t

		if err := unix.Fstat(int(file.Fd()), &openStat); err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("fstat lock file: %w", err)
		}

		fd := int(file.Fd())
		done := make(chan error, 1)

		go func() {
			done <- unix.Flock(fd, unix.LOCK_EX)
		}()

		select {
		case err := <-done:
			if err != nil {
				_ = file.Close()

				return nil, fmt.Errorf("flock: %w", err)
			}

			var pathStat unix.Stat_t

			statErr := unix.Stat(lockPath, &pathStat)
			if statErr != nil || pathStat.Ino != openStat.Ino {
				_ = unix.Flock(fd, unix.LOCK_UN)
				_ = file.Close()

				continue
			}

			return &fileLock{path: lockPath, file: file}, nil
		case <-time.After(remaining):
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", errLockTimeout, lockPath)
		}
	}
}
