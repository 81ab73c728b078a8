package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options holds the flag values shared by all commands
type options struct {
	indexFile string
	logLevel  string
	verbose   bool

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "adipoly",
		Short: "Convert and index layout polygons from the document analysis API",
		Long: `Convert layout polygons between the API's flat 8-number form and the
labeled-corner form, and index page regions for spatial lookup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogger(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.indexFile, "file", "f", "polygon_index.gob", "Index file path")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output, same as --log-level debug")

	rootCmd.AddCommand(
		newVerticesCmd(opts),
		newFlattenCmd(opts),
		newNudgeCmd(opts),
		newIndexCmd(opts),
		newQueryCmd(opts),
		newBenchCmd(opts, runtime.NumCPU()),
		newStoreCmd(opts),
	)
	return rootCmd
}

// setupLogger builds the logger; it writes to stderr so stdout stays parseable
func (o *options) setupLogger(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if o.verbose {
		level = logrus.DebugLevel
	}

	o.log = logrus.New()
	o.log.SetOutput(cmd.ErrOrStderr())
	o.log.SetLevel(level)
	o.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
