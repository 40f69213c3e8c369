package dashboard

import (
	"context"
	"sync"
	"time"

	"zgo.at/goatdash/client"
	"zgo.at/goatdash/pkg/bgrun"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/zstd/ztime"
)

// Status of the realtime poller.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
	StatusError      Status = "error"
)

// LiveState is the last realtime data.
type LiveState struct {
	Site        string          `json:"site"`
	Status      Status          `json:"status"`
	LastUpdated time.Time       `json:"last_updated"` // Last successful update.
	Err         string          `json:"error,omitempty"`
	Data        client.Realtime `json:"data"`
}

// Live polls the realtime data for one site.
type Live struct {
	src      Source
	runner   *bgrun.Runner
	interval time.Duration

	startMu sync.Mutex // Held from stopping the old loop until the new one runs.

	mu     sync.Mutex
	loop   uint64 // Incremented on every Start, so old loops can't update the state.
	state  LiveState
	cancel context.CancelFunc
	done   chan struct{}
	subs   []func(LiveState)
}

// NewLive creates a new poller; the default interval is 10 seconds, and the
// polling loops are run on bgrun.Default if runner is nil.
func NewLive(src Source, runner *bgrun.Runner, interval time.Duration) *Live {
	if runner == nil {
		runner = bgrun.Default
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Live{
		src:      src,
		runner:   runner,
		interval: interval,
		state:    LiveState{Status: StatusIdle},
	}
}

// State gets the current state.
func (l *Live) State() LiveState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe adds a function that's called after every state change.
func (l *Live) Subscribe(f func(LiveState)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, f)
}

// Start polling for site; this stops the poller for any previous site.
//
// The poller keeps running after ctx is cancelled; use Stop() to stop it.
func (l *Live) Start(ctx context.Context, site string) error {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	l.stop()

	ctx, cancel := context.WithCancel(log.WithLog(context.WithoutCancel(ctx), "site", site))
	done := make(chan struct{})

	l.mu.Lock()
	l.loop++
	loop := l.loop
	l.cancel, l.done = cancel, done
	l.state = LiveState{Site: site, Status: StatusConnecting}
	l.mu.Unlock()

	err := l.runner.Run("live "+site, func(rctx context.Context) error {
		defer close(done)
		l.run(ctx, rctx, loop, site)
		return nil
	})
	if err != nil {
		cancel()
		close(done)
	}
	return err
}

// Stop polling, and wait for the poller to finish.
func (l *Live) Stop() {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	l.stop()
}

func (l *Live) stop() {
	l.mu.Lock()
	var (
		cancel = l.cancel
		done   = l.done
	)
	l.cancel, l.done = nil, nil
	if cancel != nil {
		l.loop++
		l.state.Status = StatusIdle
	}
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Live) run(ctx, rctx context.Context, loop uint64, site string) {
	t := time.NewTicker(l.interval)
	defer t.Stop()
	for {
		l.poll(ctx, loop, site)
		select {
		case <-ctx.Done():
			return
		case <-rctx.Done():
			return
		case <-t.C:
		}
	}
}

func (l *Live) poll(ctx context.Context, loop uint64, site string) {
	defer log.Recover(ctx)

	l.set(loop, func(s *LiveState) { s.Status = StatusConnecting })
	rt, err := l.src.Realtime(ctx, site)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Module("live").Warn(ctx, "realtime update failed", "err", err)
		l.set(loop, func(s *LiveState) { s.Status, s.Err = StatusError, err.Error() })
		return
	}
	l.set(loop, func(s *LiveState) {
		s.Status, s.Err, s.Data, s.LastUpdated = StatusConnected, "", rt, ztime.Now(ctx)
	})
}

func (l *Live) set(loop uint64, f func(*LiveState)) {
	l.mu.Lock()
	if l.loop != loop {
		l.mu.Unlock()
		return
	}
	f(&l.state)
	var (
		st   = l.state
		subs = l.subs
	)
	l.mu.Unlock()

	for _, s := range subs {
		s(st)
	}
}
