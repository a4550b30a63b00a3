package rules

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a static table file when it changes.
type Watcher struct {
	path     string
	onChange func(Table)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// Watch starts watching path and calls onChange with every valid reload.
// Invalid files are logged and ignored, keeping the previous table.
func Watch(path string, onChange func(Table)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	base := filepath.Base(w.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			table, err := LoadFile(w.path)
			if err != nil {
				log.Printf("[rules] warning: keeping previous static table: %v", err)
				continue
			}
			log.Printf("[rules] reloaded static table from %s (%d entries)", w.path, len(table))
			w.onChange(table)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[rules] watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
