package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/lexandro/mirrormeta-mcp/mirror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once configuration is loaded.
type app struct {
	v        *viper.Viper
	cfgFile  string
	settings Settings
	logger   *slog.Logger
	logFile  io.Closer
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "mirrormeta-mcp",
		Short: "Metadata sidecars for locally mirrored IBM i source members",
		Long: `mirrormeta-mcp keeps the metadata of source members mirrored from an IBM i
system next to the mirrored files and serves it to MCP clients.

Each mirrored folder holds one file per member (e.g. CIN0103R.sqlrpgle) and a
.mirror folder with one JSON record per member.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.close() },
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/mirrormeta/config.toml)")
	flags.String("log-level", "info", "Log level: debug|info|warn|error")
	flags.String("log-file", "", "Log file path (default: stderr)")
	a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	a.v.BindPFlag("log.file", flags.Lookup("log-file"))

	rootCmd.AddCommand(
		a.newServeCommand(),
		a.newScanCommand(),
		a.newShowCommand(),
		a.newFindCommand(),
		a.newRenameCommand(),
		a.newWriteCommand(),
		a.newSetSymbolsCommand(),
		a.newForgetCommand(),
		a.newConfigCommand(),
		a.newRegisterCommand(),
	)
	return rootCmd
}

// setup loads configuration and creates the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := initConfig(a.v, a.cfgFile); err != nil {
		return err
	}
	a.settings = loadSettings(a.v)
	a.logger, a.logFile = setupLogger(a.settings.Log.Level, a.settings.Log.File)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// newStore opens the metadata store on the OS filesystem. Sidecar folder failures are
// echoed to stderr as well as logged.
func (a *app) newStore() *meta.Store {
	return meta.NewStore(meta.StoreOptions{
		Layout: a.settings.Layout(),
		Logger: a.logger,
		ActivityLog: func(text string) {
			fmt.Fprintln(os.Stderr, text)
		},
	})
}

func (a *app) newManager() *mirror.Manager {
	return mirror.NewManager(a.newStore(), a.logger, a.settings.Scan.Workers)
}

// setupLogger creates an slog.Logger writing to stderr or a file.
// Never stdout: serve speaks MCP over stdio.
func setupLogger(level string, logFile string) (*slog.Logger, io.Closer) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer io.Writer = os.Stderr
	var closer io.Closer
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
		} else {
			writer = f
			closer = f
		}
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler), closer
}
