package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"zgo.at/errors"
	"zgo.at/zli"
)

func printHelp(t string) {
	fmt.Fprint(stdout, zli.Usage(zli.UsageTrim|zli.UsageHeaders, t))
}

func help(f zli.Flags) (int, error) {
	topic := f.Shift()
	if topic == "" {
		printHelp(usage[""])
		return 0, nil
	}

	if topic == "all" {
		printHelp(usage[""])
		fmt.Fprintln(stdout)
		for _, h := range []string{"help", "version", "serve", "dashboard", "storage"} {
			head := fmt.Sprintf("─── Help for %q ", h)
			fmt.Fprintf(stdout, "%s%s\n\n",
				zli.Colorize(head, zli.Bold),
				strings.Repeat("─", 80-utf8.RuneCountInString(head)))
			printHelp(usage[h])
			fmt.Fprintln(stdout)
		}
		return 0, nil
	}

	t, ok := usage[topic]
	if !ok {
		return 1, errors.Errorf("no help topic for %q", topic)
	}
	printHelp(t)
	return 0, nil
}

const usageHelp = `
Show help; use "help <command>" to display detailed help for a command, or
"help all" to display everything.
`

const helpStorage = `
The preferences are stored in a small key/value store. This contains the
favorites, notes, and the last selected site; everything else comes from the
analytics API.

The -storage flag accepts:

    memory                 Keep everything in memory; nothing is persisted
                           after a restart.

    file:path.json         Store as a JSON file. The file is written on every
                           change.

    sqlite+path.sqlite3    Store in a SQLite database; the database is created
                           if it doesn't exist yet.

The default is sqlite+./goatdash.sqlite3.

Errors reading the preferences are logged and otherwise ignored: the dashboard
starts with empty preferences.
`
