package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FollowInterval is how often TailLog polls a followed file.
var FollowInterval = 100 * time.Millisecond

// FindLatestLog returns the most recently modified log file in logDir.
// It returns "" when the directory is missing or holds no logs.
func FindLatestLog(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read log dir: %w", err)
	}

	var latest string
	var latestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		// Run ids sort by start time, so names break mod time ties.
		if latest == "" || info.ModTime().After(latestTime) ||
			(info.ModTime().Equal(latestTime) && entry.Name() > filepath.Base(latest)) {
			latestTime = info.ModTime()
			latest = filepath.Join(logDir, entry.Name())
		}
	}
	return latest, nil
}

// TailLog writes the last n lines of path to w (all of it when n <= 0).
// With follow it keeps writing appended data until ctx ends.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := seekLastLines(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}

	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(FollowInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := io.Copy(w, file); err != nil {
			return err
		}
	}
}

// seekLastLines positions file at the start of its last n lines.
func seekLastLines(file *os.File, n int) error {
	const chunkSize = 4096

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	size := stat.Size()
	if size == 0 {
		return nil
	}

	// A trailing newline ends the last line rather than starting a new one.
	end := size
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		end--
	}

	buf := make([]byte, chunkSize)
	found := 0
	for pos := end; pos > 0; {
		readSize := int64(chunkSize)
		if pos < readSize {
			readSize = pos
		}
		pos -= readSize
		chunk := buf[:readSize]
		if _, err := file.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] != '\n' {
				continue
			}
			found++
			if found == n {
				_, err := file.Seek(pos+int64(i)+1, io.SeekStart)
				return err
			}
		}
	}
	_, err = file.Seek(0, io.SeekStart)
	return err
}
