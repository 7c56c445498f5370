package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// reloadDebounce is how long a template file must stay quiet before it is re-read.
const reloadDebounce = 300 * time.Millisecond

// WatchStageTemplate re-reads the stage template at path whenever it changes and passes
// each valid version to apply. An invalid file is logged and the previous template stays
// in effect. It blocks until ctx is canceled.
//
// The parent directory is watched rather than the file so editors that save by
// rename-and-replace are still seen.
func WatchStageTemplate(ctx context.Context, path string, apply func([]types.StageTemplate)) error {
	if path == "" {
		return fmt.Errorf("stage template path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve stage template path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Printf("[config] watching stage template %s", abs)

	ticker := time.NewTicker(reloadDebounce / 2)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.Now()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[config] watch error: %v", err)
		case now := <-ticker.C:
			if pending.IsZero() || now.Sub(pending) < reloadDebounce {
				continue
			}
			pending = time.Time{}
			template, err := LoadStageTemplate(abs)
			if err != nil {
				log.Printf("[config] keeping previous stage template: %v", err)
				continue
			}
			log.Printf("[config] reloaded stage template (%d stages)", len(template))
			apply(template)
		}
	}
}
