package app

import (
	"context"
	"strings"

	"go.trai.ch/stagehand/internal/adapters/render"  //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/zerr"
)

// watch re-plans whenever a descriptor of the include tree changes. Failed
// re-plans are reported and watching continues.
func (a *App) watch(ctx context.Context, opts PlanOptions, out *render.Renderer, workDir string, sources []string) error {
	w, err := a.watchers()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(sources...); err != nil {
		return err
	}

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A re-plan is already pending and will read the new content.
		}
	})
	defer debouncer.Stop()

	go func() {
		for ev := range w.Events(ctx) {
			debouncer.Add(ev.Path)
		}
	}()

	a.logger.Info("watching " + plural(len(sources), "descriptor", "descriptors"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info("changed: " + strings.Join(paths, ", "))
			res, err := a.plan(ctx, opts, out, workDir)
			if err != nil {
				a.logger.Error(zerr.Wrap(err, "re-plan failed"))
				continue
			}
			if err := w.Watch(res.Sources()...); err != nil {
				return err
			}
		}
	}
}
