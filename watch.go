package drift

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// MediaWatcher decodes images added to a directory and reports them to a
// Textures, which applies the changes on its next Poll. Decoding happens on
// the watcher goroutine so the frame thread never blocks on disk.
type MediaWatcher struct {
	w      *fsnotify.Watcher
	dir    string
	events chan<- textureEvent
	done   chan struct{}
	once   sync.Once
}

// Watch starts watching dir for image files.
func (t *Textures) Watch(dir string) (*MediaWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch media: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch media %s: %w", dir, err)
	}
	mw := &MediaWatcher{w: w, dir: dir, events: t.events, done: make(chan struct{})}
	go mw.loop()
	return mw, nil
}

func (mw *MediaWatcher) loop() {
	for {
		select {
		case ev, ok := <-mw.w.Events:
			if !ok {
				return
			}
			mw.handle(ev)
		case err, ok := <-mw.w.Errors:
			if !ok {
				return
			}
			warnf("media watch: %v", err)
		case <-mw.done:
			return
		}
	}
}

func (mw *MediaWatcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !isImageFile(name) {
		return
	}
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		mw.send(textureEvent{remove: name})
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		f, err := os.Open(ev.Name)
		if err != nil {
			warnf("media watch: %v", err)
			return
		}
		tex, err := decodeTexture(name, f)
		f.Close()
		if err != nil {
			// Usually a partially written file; the next Write retries.
			return
		}
		mw.send(textureEvent{add: tex})
	}
}

func (mw *MediaWatcher) send(ev textureEvent) {
	select {
	case mw.events <- ev:
	case <-mw.done:
	}
}

// Close stops the watcher. Safe to call more than once.
func (mw *MediaWatcher) Close() error {
	var err error
	mw.once.Do(func() {
		close(mw.done)
		err = mw.w.Close()
	})
	return err
}
