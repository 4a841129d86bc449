// Package cli implements the docanalyst command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docanalyst/internal/app"
	"docanalyst/internal/config"
	"docanalyst/internal/logging"
	"docanalyst/internal/port"
)

// OCRFactory builds the OCR engine handed to the image processor.
type OCRFactory func(cfg *config.OCRConfig, log *zap.Logger) port.OCREngine

// Options configures Execute. Nil writers default to the process streams.
type Options struct {
	Out    io.Writer
	Err    io.Writer
	NewOCR OCRFactory
}

// env carries the state shared by every subcommand of one invocation.
type env struct {
	out, errOut io.Writer
	newOCR      OCRFactory

	cfgPath  string
	logLevel string

	cfg *config.Config
	log *zap.Logger
	app *app.App
}

// Execute runs the command line with args and releases every resource it
// opened, whatever the outcome.
func Execute(ctx context.Context, opts Options, args []string) error {
	root, e := newRootCmd(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := e.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(opts Options) (*cobra.Command, *env) {
	e := &env{out: opts.Out, errOut: opts.Err, newOCR: opts.NewOCR}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.errOut == nil {
		e.errOut = os.Stderr
	}

	root := &cobra.Command{
		Use:           "docanalyst",
		Short:         "Extract, split and analyze documents with AI providers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.load()
		},
	}
	root.SetOut(e.out)
	root.SetErr(e.errOut)
	root.PersistentFlags().StringVar(&e.cfgPath, "config", "", "path to config.yaml (default ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(e),
		newSplitCmd(e),
		newTypesCmd(e),
		newFormatsCmd(e),
		newHistoryCmd(e),
	)
	return root, e
}

// load reads .env and the config file and builds the logger.
func (e *env) load() error {
	if e.cfg != nil {
		return nil
	}
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(e.cfgPath)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	e.cfg, e.log = cfg, log
	return nil
}

// open wires the services. Commands that only read static catalogues skip it
// so they never contend for the history database lock.
func (e *env) open() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	var ocr port.OCREngine
	if e.newOCR != nil {
		ocr = e.newOCR(&e.cfg.OCR, e.log)
	}
	a, err := app.New(e.cfg, ocr, e.log)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func (e *env) close() error {
	if e.log != nil {
		_ = e.log.Sync()
	}
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

func (e *env) eprintf(format string, args ...any) {
	fmt.Fprintf(e.errOut, format, args...)
}
