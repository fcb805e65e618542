package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/tamirms/minisketch/internal/output"
)

// Version is the release string printed by the version command.
var Version = "dev"

type env struct {
	stdout io.Writer
	stderr io.Writer
}

func commands(e *env) []*Command {
	cmds := []*Command{
		sketchCommand(e),
		packCommand(e),
		verifyCommand(e),
		{
			Name:    "version",
			Summary: "Print the version",
			Usage:   "minisketch version",
			Run: func(context.Context, *pflag.FlagSet, []string) error {
				_, err := fmt.Fprintf(e.stdout, "minisketch %s\n", Version)
				return err
			},
		},
	}
	return cmds
}

// Run executes the command line args (without the program name) and
// returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	e := &env{stdout: stdout, stderr: stderr}
	cmds := commands(e)

	err := dispatch(ctx, e, cmds, args)
	switch {
	case err == nil:
		return ExitOK
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		fmt.Fprintln(stderr, "minisketch: interrupted")
		return ExitInterrupted
	case output.IsBrokenPipe(err):
		return ExitOK
	}
	fmt.Fprintf(stderr, "minisketch: %v\n", err)
	if errors.As(err, new(usageError)) {
		return ExitUsage
	}
	return ExitError
}

func dispatch(ctx context.Context, e *env, cmds []*Command, args []string) error {
	if len(args) == 0 {
		printCommands(e.stderr, cmds)
		return usagef("command required")
	}
	name, rest := args[0], args[1:]
	if isHelpFlag(name) {
		if len(rest) > 0 {
			if c := lookup(cmds, rest[0]); c != nil {
				c.printHelp(e.stderr)
				return nil
			}
			return usagef("unknown command %q", rest[0])
		}
		printCommands(e.stderr, cmds)
		return nil
	}
	c := lookup(cmds, name)
	if c == nil {
		return usagef("unknown command %q\n\nRun 'minisketch help' for usage.", name)
	}
	return c.execute(ctx, e.stderr, rest)
}

func lookup(cmds []*Command, name string) *Command {
	for _, c := range cmds {
		if c.Name == name {
			return c
		}
	}
	return nil
}
