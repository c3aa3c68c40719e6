// Package cli implements mintctl, the command-line client for the workshop collection.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meur/mintforge/internal/app"
	"github.com/meur/mintforge/internal/config"
)

type globalOptions struct {
	configPath string
	network    string
	dbPath     string
	verbose    bool
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:          "mintctl",
		Short:        "Mint and inspect workshop NFTs",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("MINTFORGE_CONFIG"), "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.network, "network", "", "Network to use (overrides the config)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides server.db_path)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(collectionCmd(opts))
	cmd.AddCommand(itemsCmd(opts))
	cmd.AddCommand(itemCmd(opts))
	cmd.AddCommand(coinsCmd(opts))
	cmd.AddCommand(mintCmd(opts))
	cmd.AddCommand(mintsCmd(opts))
	cmd.AddCommand(keygenCmd())
	cmd.AddCommand(addressCmd(opts))
	cmd.AddCommand(adminCmd(opts))
	cmd.AddCommand(counterCmd(opts))

	return cmd
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.network != "" {
		cfg.Network = o.network
	}
	if o.dbPath != "" {
		cfg.Server.DBPath = o.dbPath
	}
	cfg.Log.Console = o.verbose
	return cfg, nil
}

func (o *globalOptions) open(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// ownerArg returns the first argument or, failing that, the configured signer's address
func ownerArg(a *app.App, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.Signer == nil {
		return "", errNoSigner
	}
	return a.Signer.Address(), nil
}

func section(title string) {
	pterm.DefaultSection.Println(title)
}

func renderTable(rows [][]string) error {
	return pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()
}

func renderPairs(rows [][]string) error {
	return pterm.DefaultTable.WithHasHeader(false).WithData(rows).Render()
}
