// Package cli implements the minisketch command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Exit codes returned by Run.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// Command is one subcommand.
type Command struct {
	Name    string
	Summary string
	Usage   string

	// Flags builds the command's flag set. Nil means no flags.
	Flags func() *pflag.FlagSet

	// Run executes the command. fs is the parsed flag set, or nil.
	Run func(ctx context.Context, fs *pflag.FlagSet, args []string) error
}

// usageError marks an invocation problem, reported with exit code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func (c *Command) execute(ctx context.Context, stderr io.Writer, args []string) error {
	var fs *pflag.FlagSet
	if c.Flags != nil {
		fs = c.Flags()
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.printHelp(stderr)
				return nil
			}
			return usagef("%s\n\nRun 'minisketch %s --help' for usage.", err, c.Name)
		}
		args = fs.Args()
	} else if len(args) > 0 && isHelpFlag(args[0]) {
		c.printHelp(stderr)
		return nil
	}
	return c.Run(ctx, fs, args)
}

func (c *Command) printHelp(w io.Writer) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", c.Summary, c.Usage)
	if c.Flags == nil {
		return
	}
	var flagHelp strings.Builder
	fs := c.Flags()
	fs.SetOutput(&flagHelp)
	fs.PrintDefaults()
	if flagHelp.Len() > 0 {
		fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
	}
}

func printCommands(w io.Writer, cmds []*Command) {
	fmt.Fprintf(w, "minisketch computes minimizer sketches of DNA sequences.\n\n")
	fmt.Fprintf(w, "Usage:\n  minisketch <command> [flags]\n\nCommands:\n")
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, c := range cmds {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Name, c.Summary)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nRun 'minisketch <command> --help' for command flags.\n")
}
