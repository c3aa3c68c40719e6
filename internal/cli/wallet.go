package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meur/mintforge/internal/wallet"
)

var errNoSigner = errors.New("no signing key: set MINTFORGE_PRIVATE_KEY or MINTFORGE_MNEMONIC")

func keygenCmd() *cobra.Command {
	var words int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new mnemonic and print its address and private key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			rows, err := keygenRows(words)
			if err != nil {
				return err
			}
			pterm.Warning.Println("Anyone with the mnemonic or private key controls this address")
			return renderPairs(rows)
		},
	}
	cmd.Flags().IntVar(&words, "words", 12, "Mnemonic length in words")
	return cmd
}

func keygenRows(words int) ([][]string, error) {
	mnemonic, err := wallet.GenerateMnemonic(words)
	if err != nil {
		return nil, err
	}
	kp, err := wallet.FromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	priv, err := kp.EncodePrivateKey()
	if err != nil {
		return nil, err
	}
	return [][]string{
		{"Mnemonic", mnemonic},
		{"Path", wallet.DerivationPath},
		{"Address", kp.Address()},
		{"Private key", priv},
	}, nil
}

func addressCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of the configured signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			kp, err := wallet.Load(cfg.Signer)
			if err != nil {
				return err
			}
			if kp == nil {
				return errNoSigner
			}
			fmt.Fprintln(cmd.OutOrStdout(), kp.Address())
			return nil
		},
	}
}
