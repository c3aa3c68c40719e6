package cli

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meur/mintforge/internal/models"
)

func counterCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Use the workshop's counter contract",
	}
	cmd.AddCommand(counterCreateCmd(opts))
	cmd.AddCommand(counterIncrementCmd(opts))
	cmd.AddCommand(counterShowCmd(opts))
	return cmd
}

func counterCreateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a counter owned by the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			signer, err := a.RequireSigner()
			if err != nil {
				return err
			}
			id, err := a.Minter.CreateCounter(cmd.Context(), signer)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Created counter %s", id)
			return nil
		},
	}
}

func counterIncrementCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "increment [counter-id]",
		Short: "Increment a counter, defaulting to the configured one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			signer, err := a.RequireSigner()
			if err != nil {
				return err
			}
			c, err := a.Minter.IncrementCounter(cmd.Context(), signer, firstArg(args))
			if err != nil {
				return err
			}
			return renderPairs(counterRows(c))
		},
	}
}

func counterShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [counter-id]",
		Short: "Show a counter's value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.Minter.Counter(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			return renderPairs(counterRows(c))
		},
	}
}

func counterRows(c *models.Counter) [][]string {
	return [][]string{
		{"Counter", c.ID},
		{"Owner", c.Owner},
		{"Value", strconv.FormatUint(c.Value, 10)},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
