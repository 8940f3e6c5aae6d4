package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CleanupStaging removes staged legacy downloads older than the staging TTL, at any depth under the
// staging directory, then the directories they leave empty. The staging directory itself is kept.
// An empty directory is only removed when it is older than the TTL or this run emptied it,
// a download may have just created it.
func (c *cleanupService) CleanupStaging(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-c.stagingTTL)

	var dirs []string
	emptied := make(map[string]bool)
	removed := 0

	err := filepath.WalkDir(c.stagingDir, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == c.stagingDir {
				return err
			}
			c.logger.Error("failed to read staging entry", "path", path, "err", err)
			return nil
		}
		if entry.IsDir() {
			if path != c.stagingDir {
				dirs = append(dirs, path)
			}
			return nil
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			c.logger.Error("failed to remove staged file", "path", path, "err", err)
			return nil
		}
		emptied[filepath.Dir(path)] = true
		removed++
		stagedFilesRemoved.Inc()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	// children are walked after their parent, reverse order removes them first
	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		if !emptied[dir] && !olderThan(dir, cutoff) {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to remove staging directory", "dir", dir, "err", err)
			continue
		}
		emptied[filepath.Dir(dir)] = true
	}

	c.logger.Info("staging cleanup completed", "removed", removed)
	return nil
}

func olderThan(path string, cutoff time.Time) bool {
	info, err := os.Stat(path)
	return err == nil && info.ModTime().Before(cutoff)
}
