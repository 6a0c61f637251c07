package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

// Watch blocks until the config file changes semantically or ctx is
// cancelled. It returns true when a reload would produce a different
// config; the caller exits so the service manager restarts it with the
// new settings. Rewrites that parse to the same config are ignored, as
// are transient parse errors while the file is being written.
func Watch(ctx context.Context, path string, current Config, log zerolog.Logger) (bool, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}
	defer w.Close()

	// Watch the directory, not the file: editors and config writers
	// replace the file by rename, which drops a file-level watch.
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return false, err
	}

	for {
		select {
		case <-ctx.Done():
			return false, nil
		case ev, ok := <-w.Events:
			if !ok {
				return false, nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			next, err := Load(path)
			if err != nil {
				log.Error().Err(err).Msg("error reloading config")
				continue
			}
			diff := cmp.Diff(current, next)
			if diff == "" {
				log.Info().Msg("no relevant changes detected in config file")
				continue
			}
			log.Debug().Str("diff", diff).Msg("config diff")
			return true, nil
		case err, ok := <-w.Errors:
			if !ok {
				return false, nil
			}
			return false, err
		}
	}
}
