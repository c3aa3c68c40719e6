package cli

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meur/mintforge/internal/chain"
	"github.com/meur/mintforge/internal/format"
)

func adminCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Collection administration (requires the AdminCap)",
	}
	cmd.AddCommand(adminSetActiveCmd(opts))
	cmd.AddCommand(adminSetPriceCmd(opts))
	return cmd
}

func adminSetActiveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-active <true|false>",
		Short: "Open or close minting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("set-active takes true or false, got %q", args[0])
			}

			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			signer, err := a.RequireSigner()
			if err != nil {
				return err
			}
			resp, err := a.Minter.SetActive(cmd.Context(), signer, active)
			if err != nil {
				return err
			}
			printTx(fmt.Sprintf("Collection active = %t", active), resp, a.Network.TxURL(resp.Digest))
			return nil
		},
	}
}

func adminSetPriceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-price <sui>",
		Short: "Change the mint price, given in SUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := format.ParseSUI(args[0])
			if err != nil {
				return err
			}

			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			signer, err := a.RequireSigner()
			if err != nil {
				return err
			}
			resp, err := a.Minter.UpdatePrice(cmd.Context(), signer, price)
			if err != nil {
				return err
			}
			printTx(fmt.Sprintf("Price set to %s SUI (%d MIST)", format.FormatSUIExact(price), price), resp, a.Network.TxURL(resp.Digest))
			return nil
		},
	}
}

func printTx(msg string, resp *chain.TransactionResponse, url string) {
	pterm.Success.Println(msg)
	pterm.Info.Printfln("Digest %s", resp.Digest)
	if url != "" {
		pterm.Info.Println(url)
	}
}
