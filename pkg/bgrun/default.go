package bgrun

import (
	"context"

	"zgo.at/goatdash/pkg/log"
)

// Default is the runner used by the package-level functions; jobs that fail
// are logged as errors.
var Default = NewRunner(func(t string, err error) {
	log.Module("bgrun").Errorf(context.Background(), "error running task %q: %s", t, err)
})

func Limit(task string, n int) { Default.Limit(task, n) }
func Run(name string, fun func(context.Context) error) error {
	return Default.run(name, fun, 2)
}
func RunFunction(name string, fun func()) error {
	return Default.run(name, func(context.Context) error { fun(); return nil }, 2)
}
func Wait(name string) { Default.Wait(name) }
func Cancel()          { Default.Cancel() }
func Running() []Job   { return Default.Running() }
func History() []Job   { return Default.History() }
