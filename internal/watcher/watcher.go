// Package watcher runs a handler for every batch file dropped into a
// directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Handler processes one newly created file.
type Handler func(ctx context.Context, path string) error

type Options struct {
	Dir string
	// MaxConcurrent bounds handlers running at once. Defaults to 2.
	MaxConcurrent int
	// Settle is how long to wait after a create event before reading the file.
	Settle time.Duration
	// Accept filters paths. Nil accepts everything.
	Accept func(path string) bool
}

type Watcher struct {
	opts    Options
	handler Handler
	log     *logrus.Entry
	fs      *fsnotify.Watcher
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

func New(opts Options, handler Handler, log *logrus.Entry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(opts.Dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	return &Watcher{
		opts:    opts,
		handler: handler,
		log:     log,
		fs:      fw,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
	}, nil
}

// Start blocks until ctx is done, then waits for running handlers and
// returns ctx.Err().
func (w *Watcher) Start(ctx context.Context) error {
	w.log.WithFields(logrus.Fields{
		"dir":            w.opts.Dir,
		"max_concurrent": w.opts.MaxConcurrent,
	}).Info("watching for batch files")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("waiting for running batches")
			w.wg.Wait()
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				w.wg.Wait()
				return errors.New("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if w.opts.Accept != nil && !w.opts.Accept(ev.Name) {
				w.log.WithField("path", ev.Name).Debug("ignoring file")
				continue
			}
			if err := w.sem.Acquire(ctx, 1); err != nil {
				w.wg.Wait()
				return ctx.Err()
			}
			w.wg.Add(1)
			go w.handle(ctx, ev.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				w.wg.Wait()
				return errors.New("watcher errors channel closed")
			}
			w.log.WithError(err).Error("watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	defer w.wg.Done()
	defer w.sem.Release(1)

	log := w.log.WithField("path", path)
	if w.opts.Settle > 0 {
		select {
		case <-time.After(w.opts.Settle):
		case <-ctx.Done():
			return
		}
	}
	log.Info("batch file detected")
	if err := w.handler(ctx, path); err != nil {
		log.WithError(err).Error("batch failed")
	}
}

// Stop closes the underlying notifier, which ends Start.
func (w *Watcher) Stop() error {
	return w.fs.Close()
}
