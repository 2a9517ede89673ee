// Package safeio implements the Safe Writer (spec.md C8): atomic file
// writes with a backup/rename dance, and a transaction helper with
// reverse-order rollback.
package safeio

import (
	"fmt"
	"os"

	"github.com/ternarybob/promptd/internal/fileutil"
	"github.com/ternarybob/promptd/internal/logger"
)

// SafeWrite writes content to path via a .tmp file, backing up any
// existing file to .bak first, then renaming .tmp into place and
// removing the backup. On any failure it removes a leftover .tmp and
// surfaces the original error.
func SafeWrite(path string, content []byte) (err error) {
	tmpPath := path + ".tmp"
	bakPath := path + ".bak"

	defer func() {
		if err != nil {
			if _, statErr := os.Stat(tmpPath); statErr == nil {
				_ = os.Remove(tmpPath)
			}
		}
	}()

	if err = os.WriteFile(tmpPath, content, 0o644); err != nil {
		return fmt.Errorf("write temp file %s: %w", tmpPath, err)
	}

	hadExisting := false
	if _, statErr := os.Stat(path); statErr == nil {
		hadExisting = true
		if err = copyFile(path, bakPath); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}

	if hadExisting {
		if rmErr := os.Remove(bakPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.GetLogger().Warn().Err(rmErr).Str("path", bakPath).Msg("failed to remove backup file")
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := fileutil.ReadFile(src)
	if err != nil {
		return err
	}
	return fileutil.WriteFile(dst, data)
}

// Step is one unit of work in a Transaction.
type Step func() (any, error)

// Rollback undoes the effect of the Step at the same index.
type Rollback func()

// Transaction runs steps in order. If a step returns an error, the
// rollbacks of every already-succeeded step run in reverse order; a
// missing rollback (nil) is treated as a warn-only no-op, and a
// rollback that panics is recovered and logged and the remaining
// rollbacks still run. Transaction returns nil and the error that
// stopped it on failure, or the final step's result and nil on full
// success.
func Transaction(steps []Step, rollbacks []Rollback) (any, error) {
	succeeded := 0
	var lastResult any
	var stepErr error

	for i, step := range steps {
		result, err := step()
		if err != nil {
			stepErr = err
			break
		}
		lastResult = result
		succeeded = i + 1
	}

	if stepErr != nil {
		for i := succeeded - 1; i >= 0; i-- {
			runRollback(i, rollbacks)
		}
		return nil, stepErr
	}

	return lastResult, nil
}

func runRollback(index int, rollbacks []Rollback) {
	if index >= len(rollbacks) || rollbacks[index] == nil {
		logger.GetLogger().Warn().Int("step", index).Msg("no rollback registered for step, skipping")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Int("step", index).Msg("rollback panicked, continuing")
		}
	}()
	rollbacks[index]()
}
