package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/msalah0e/skilltree/internal/config"
	"github.com/msalah0e/skilltree/internal/ctxlog"
	"github.com/msalah0e/skilltree/internal/ui"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	treeFlag  string
	logLevel  string
	logFormat string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "skilltree",
	Short: "skilltree: plan skills as a prerequisite graph",
	Long: ui.Brand.Sprint(ui.Tree+" skilltree") + ": skills and goals linked by prerequisites\n" +
		ui.Subtle.Sprint("Nodes unlock as their prerequisites complete; tasks in linked notes drive progress"),
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		log := ctxlog.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(ctxlog.WithLogger(ctx, log))
	},
	Run: func(cmd *cobra.Command, args []string) {
		runStatus(cmd)
	},
}

func init() {
	rootCmd.SetVersionTemplate("skilltree {{ .Version }}\n")
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&treeFlag, "tree", "t", "", "Switch to this tree before running the command")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")
	_ = rootCmd.RegisterFlagCompletionFunc("tree", treeCompletionFunc)

	rootCmd.AddCommand(
		statusCmd(),
		showCmd(),
		treeCmd(),
		nodeCmd(),
		edgeCmd(),
		taskCmd(),
		undoCmd(),
		redoCmd(),
		exportCmd(),
		importCmd(),
		renderCmd(),
		serveCmd(),
		watchCmd(),
		syncCmd(),
		configCmd(),
		actlogCmd(),
		completionCmd(),
	)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which stops serve and watch cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
