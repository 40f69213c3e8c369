// Package bgrun runs jobs in the background, and keeps track of them so the
// server can wait for the pollers and outgoing emails on shutdown.
package bgrun

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"zgo.at/errors"
)

// Job is a running or finished job.
type Job struct {
	Task    string        `json:"task"`
	Started time.Time     `json:"started"`
	Took    time.Duration `json:"took,omitempty"` // Only set for finished jobs.
	From    string        `json:"from"`           // file:line the job was started from.
}

// ErrLimit is returned if a task is already running the maximum number of
// jobs set with Limit.
type ErrLimit struct {
	Task  string
	Limit int
}

func (e ErrLimit) Error() string {
	return fmt.Sprintf("bgrun.Run: task %q already has %d jobs running", e.Task, e.Limit)
}

// Size of the history.
const histSize = 50

// Runner runs jobs.
type Runner struct {
	logErr func(task string, err error)

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	limits  map[string]int
	wait    map[string]*sync.WaitGroup
	running map[*Job]struct{}
	hist    []Job
}

// NewRunner creates a new runner; errors and panics from jobs are reported to
// logErr.
func NewRunner(logErr func(task string, err error)) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logErr:  logErr,
		ctx:     ctx,
		cancel:  cancel,
		limits:  make(map[string]int),
		wait:    make(map[string]*sync.WaitGroup),
		running: make(map[*Job]struct{}),
		hist:    make([]Job, 0, histSize),
	}
}

// Limit the number of jobs for the task that can run at the same time; 0 means
// no limit.
func (r *Runner) Limit(task string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits[task] = n
}

// Run fun in the background.
//
// The context is cancelled when Cancel is called; errors and panics are
// reported to the error function passed to NewRunner.
func (r *Runner) Run(name string, fun func(context.Context) error) error {
	return r.run(name, fun, 2)
}

// RunFunction is like Run, for functions that don't need the context.
func (r *Runner) RunFunction(name string, fun func()) error {
	return r.run(name, func(context.Context) error { fun(); return nil }, 2)
}

func (r *Runner) run(name string, fun func(context.Context) error, depth int) error {
	if name == "" {
		return errors.New("bgrun.Run: name cannot be an empty string")
	}
	job := &Job{Task: name, Started: time.Now(), From: loc(depth)}

	r.mu.Lock()
	if l := r.limits[name]; l > 0 && r.count(name) >= l {
		r.mu.Unlock()
		return &ErrLimit{Task: name, Limit: l}
	}
	wg, ok := r.wait[name]
	if !ok {
		wg = new(sync.WaitGroup)
		r.wait[name] = wg
	}
	wg.Add(1)
	r.running[job] = struct{}{}
	ctx := r.ctx
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				switch rr := rec.(type) {
				case error:
					r.logErr(name, rr)
				default:
					r.logErr(name, fmt.Errorf("%v", rr))
				}
			}
			r.finish(job)
			wg.Done()
		}()

		if err := fun(ctx); err != nil {
			r.logErr(name, err)
		}
	}()
	return nil
}

// Must hold lock.
func (r *Runner) count(name string) int {
	n := 0
	for j := range r.running {
		if j.Task == name {
			n++
		}
	}
	return n
}

func (r *Runner) finish(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, job)
	done := *job
	done.Took = time.Since(job.Started)
	r.hist = append(r.hist, done)
	if len(r.hist) > histSize {
		r.hist = r.hist[len(r.hist)-histSize:]
	}
}

// Wait for all running jobs for the task to finish.
//
// If name is an empty string it will wait for jobs for all tasks.
func (r *Runner) Wait(name string) {
	r.mu.Lock()
	var wait []*sync.WaitGroup
	if name == "" {
		wait = make([]*sync.WaitGroup, 0, len(r.wait))
		for _, wg := range r.wait {
			wait = append(wait, wg)
		}
	} else if wg, ok := r.wait[name]; ok {
		wait = append(wait, wg)
	}
	r.mu.Unlock()

	for _, wg := range wait {
		wg.Wait()
	}
}

// Cancel the context for all running jobs. Jobs started after this get a new
// context.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel()
	r.ctx, r.cancel = context.WithCancel(context.Background())
}

// Running returns all running jobs, sorted by start time.
func (r *Runner) Running() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := make([]Job, 0, len(r.running))
	for j := range r.running {
		l = append(l, *j)
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Started.Before(l[j].Started) })
	return l
}

// History gets the last finished jobs, oldest first.
func (r *Runner) History() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	cpy := make([]Job, len(r.hist))
	copy(cpy, r.hist)
	return cpy
}

// loc gets the file:line of the function depth frames above the caller.
func loc(depth int) string {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return "???:0"
	}
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			file = file[i+1:]
			break
		}
	}
	return fmt.Sprintf("%v:%v", file, line)
}
