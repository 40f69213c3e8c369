package main

import (
	"fmt"
	"os"
	"runtime"

	"zgo.at/errors"
	"zgo.at/goatdash"
	"zgo.at/zli"
)

var stdout = zli.Stdout

var usage = map[string]string{
	"":          usageTop,
	"help":      usageHelp,
	"version":   usageVersion,
	"serve":     usageServe,
	"dashboard": usageDashboard,
	"storage":   helpStorage,
}

const usageTop = `
goatdash is a dashboard for an analytics API. https://github.com/arp242/goatdash

Commands:

  help         Show help; use "help <topic>" or "help all" for more details.
  version      Show version and build information and exit.
  serve        Start the web dashboard.
  dashboard    Show the dashboard in the terminal.

Extra help topics:

  storage      Where preferences (favorites, notes, active site) are stored.

See "help <topic>" for more details for the command.
`

const usageVersion = `
Show version and build information and exit.
`

func main() {
	var (
		ready = make(chan struct{}, 1)
		stop  = make(chan struct{}, 1)
	)
	code, err := run(zli.NewFlags(os.Args), ready, stop)
	if err != nil {
		zli.Errorf(err)
	}
	zli.Exit(code)
}

func run(f zli.Flags, ready chan<- struct{}, stop chan struct{}) (int, error) {
	cmd := f.Shift()
	switch cmd {
	default:
		printHelp(usage[""])
		return 1, errors.Errorf("unknown command: %q", cmd)
	case "", "help", "-h", "-help", "--help":
		return help(f)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, "version="+goatdash.Version+"; go="+runtime.Version()+
			"; GOOS="+runtime.GOOS+"; GOARCH="+runtime.GOARCH)
		return 0, nil
	case "serve":
		return exitCode(cmdServe(f, ready, stop))
	case "dashboard":
		return exitCode(cmdDashboard(f))
	}
}

func exitCode(err error) (int, error) {
	if err != nil {
		return 1, err
	}
	return 0, nil
}
