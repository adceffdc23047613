package plan

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// LoadFile reads a plan catalog file: one plan config per line (DSL or
// JSON object), blank lines and '#' comments ignored.
func LoadFile(path string) ([]Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	var plans []Plan
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		p, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog %s line %d: %w", path, line, err)
		}
		plans = append(plans, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return plans, nil
}

// Defaults returns the built-in catalog used when no catalog file is
// configured.
func Defaults() []Plan {
	var plans []Plan
	for _, cfg := range []string{
		"free;FREE;Free;EUR",
		"flat;PRO;Pro;EUR;20",
		"per_seat;TEAM;Team;EUR;10;5",
	} {
		p, err := Parse(cfg)
		if err != nil {
			panic(err)
		}
		plans = append(plans, p)
	}
	return plans
}

// WatchFile watches a catalog file and calls onLoad with the freshly
// parsed plans after each write. A file that becomes unparsable is
// reported through onError and the previous catalog stays in effect.
// Blocks until ctx is done.
func WatchFile(ctx context.Context, path string, onLoad func([]Plan), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			plans, err := LoadFile(path)
			if err != nil {
				onError(err)
				continue
			}
			onLoad(plans)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
