package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/histeq.go/pkg/logging"
	"github.com/spf13/cobra"
)

// Root is the top level command; it owns the log file opened for --log-file
type Root struct {
	*cobra.Command
	logFile io.Closer
}

// Execute runs the command tree and closes the log file whether or not the
// command succeeds
func (r *Root) Execute() error {
	defer r.closeLog()
	return r.Command.Execute()
}

func (r *Root) closeLog() {
	if r.logFile != nil {
		r.logFile.Close()
		r.logFile = nil
	}
}

func NewRoot(ctx context.Context, gitsha string) *Root {
	root := &Root{}
	cmd := &cobra.Command{
		Use:   "histeqctl",
		Short: "grayscale contrast enhancement and image quality metrics",
		Long:  "Applies HE, CLAHE, DSIHE and BBHE to grayscale images and scores each result with AMBE, PSNR, contrast and entropy.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logJSON, _ := cmd.Flags().GetBool("log-json")
			logPath, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}

			var w io.Writer = os.Stderr
			if logPath != "" {
				f := logging.FileWriter(logPath, logging.DefaultFileOptions())
				root.logFile = f
				w = io.MultiWriter(os.Stderr, f)
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewEnhanceCmd(ctx),
		NewAnalyzeCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "Log as JSON instead of text")
	pf.String("log-file", "", "Also write logs to this rotating file")
	root.Command = cmd
	return root
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
