package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// Execute runs the healthviz CLI with args and returns an error if the
// command fails. This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level, plus pipeline, cache and HTTP events
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Args[1:], os.Stderr); err != nil {
//	        fmt.Fprintln(os.Stderr, cli.ErrorLine(err))
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context, args []string, stderr io.Writer) error {
	var verbose bool

	c := New(stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// ErrorLine renders err as the single line printed on failure. It names the
// pipeline stage that failed when known and ends with the error code.
func ErrorLine(err error) string {
	msg := errors.UserMessage(err)
	if code := errors.GetCode(err); code != "" {
		return fmt.Sprintf("%s %s %s", styleIconError.Render(iconError), msg, StyleDim.Render("["+string(code)+"]"))
	}
	return styleIconError.Render(iconError) + " " + msg
}
