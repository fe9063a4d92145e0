// 文件变更监听器。
//
// 轮询路径（文件或目录）的修改时间与大小，变化时触发回调。
// 用于运行时重建策略索引。
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileWatcher polls a set of paths and reports changes.
type FileWatcher struct {
	mu       sync.Mutex
	paths    []string
	interval time.Duration
	last     string
	onChange []func(ctx context.Context)
	logger   *zap.Logger
}

// NewFileWatcher creates a watcher; interval <= 0 defaults to 5s.
func NewFileWatcher(paths []string, interval time.Duration, logger *zap.Logger) *FileWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &FileWatcher{
		paths:    append([]string(nil), paths...),
		interval: interval,
		logger:   logger.With(zap.String("component", "file_watcher")),
	}
	w.last, _ = w.fingerprint()
	return w
}

// OnChange registers a callback run after a detected change.
func (w *FileWatcher) OnChange(fn func(ctx context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Run polls until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check compares the current state to the last seen one and fires callbacks on change.
func (w *FileWatcher) Check(ctx context.Context) bool {
	fp, err := w.fingerprint()
	if err != nil {
		w.logger.Warn("watch scan failed", zap.Error(err))
		return false
	}

	w.mu.Lock()
	changed := fp != w.last
	w.last = fp
	callbacks := append([]func(context.Context){}, w.onChange...)
	w.mu.Unlock()

	if !changed {
		return false
	}
	w.logger.Info("watched files changed", zap.Strings("paths", w.paths))
	for _, fn := range callbacks {
		fn(ctx)
	}
	return true
}

// fingerprint 将所有文件的路径、大小与修改时间拼接为一个字符串
func (w *FileWatcher) fingerprint() (string, error) {
	var entries []string
	for _, root := range w.paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			entries = append(entries, fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()))
			return nil
		})
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	sort.Strings(entries)
	return strings.Join(entries, "\n"), nil
}
