package repository

import (
	"context"
	"log"
	"reflect"
	"time"
)

// watchSnapshots runs fetch once, then again on every signal, forwarding
// results that differ from the last one sent. The returned channel is closed
// when ctx is done or signal is closed.
func watchSnapshots[T any](ctx context.Context, tag string, signal <-chan struct{}, fetch func(context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		var (
			last T
			sent bool
		)
		emit := func() bool {
			snap, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				log.Printf("[watch] tag=%s stage=fetch err=%v", tag, err)
				return true
			}
			if sent && reflect.DeepEqual(last, snap) {
				return true
			}
			select {
			case out <- snap:
				last, sent = snap, true
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signal:
				if !ok || !emit() {
					return
				}
			}
		}
	}()
	return out
}

// tickerSignal fires every interval until ctx is done.
func tickerSignal(ctx context.Context, interval time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}
