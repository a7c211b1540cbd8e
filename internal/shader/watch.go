package shader

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the burst of events editors produce for one save.
const debounce = 100 * time.Millisecond

// Watch reports the names of stages whose source changed in the override
// directory. Each value on the channel is a sorted, de-duplicated batch.
// The channel is closed when ctx is done. A change to the Uniforms source
// is reported as every stage.
func (l *Library) Watch(ctx context.Context) (<-chan []string, error) {
	if l.dir == "" {
		return nil, errors.New("shader: no override directory to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(l.dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan []string)
	go func() {
		defer close(out)
		defer w.Close()

		pending := make(map[string]struct{})
		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				name, ok := stageName(e.Name)
				if !ok {
					continue
				}
				pending[name] = struct{}{}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slogger().Warn("shader: watch", "dir", l.dir, "err", err)
			case <-timer.C:
				batch := expand(pending)
				clear(pending)
				if len(batch) == 0 {
					continue
				}
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	slogger().Info("shader: watching", "dir", l.dir)
	return out, nil
}

func stageName(file string) (string, bool) {
	base := filepath.Base(file)
	if !strings.HasSuffix(base, ".wgsl") {
		return "", false
	}
	return strings.TrimSuffix(base, ".wgsl"), true
}

func expand(pending map[string]struct{}) []string {
	if _, ok := pending[Uniforms]; ok {
		return Stages()
	}
	names := make([]string, 0, len(pending))
	for _, s := range Stages() {
		if _, ok := pending[s]; ok {
			names = append(names, s)
		}
	}
	return names
}
