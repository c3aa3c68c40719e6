package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meur/mintforge/internal/mint"
	"github.com/meur/mintforge/internal/models"
)

type mintOptions struct {
	name        string
	description string
	image       string
	attrs       []string
}

func mintCmd(opts *globalOptions) *cobra.Command {
	mo := &mintOptions{}

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Pin an image and mint an NFT with the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, err := mo.form()
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

			spinner, _ := pterm.DefaultSpinner.Start("Minting " + form.Name)
			receipt, err := a.Minter.Mint(cmd.Context(), form, signer,
				mint.OnSuccess(func(r models.Receipt) {
					spinner.Success("Minted " + r.ObjectID)
				}))
			if err != nil {
				spinner.Fail(err.Error())
				printValidation(err)
				return err
			}
			return renderPairs(receiptRows(receipt))
		},
	}
	cmd.Flags().StringVar(&mo.name, "name", "", "Item name (at least 3 characters)")
	cmd.Flags().StringVar(&mo.description, "description", "", "Item description (at least 10 characters)")
	cmd.Flags().StringVar(&mo.image, "image", "", "Path to the image file")
	cmd.Flags().StringArrayVar(&mo.attrs, "attr", nil, "Attribute as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func (mo *mintOptions) form() (*mint.Form, error) {
	attrs, err := parseAttributes(mo.attrs)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(mo.image)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return &mint.Form{
		Name:        mo.name,
		Description: mo.description,
		Attributes:  attrs,
		Image:       &mint.Image{Filename: filepath.Base(mo.image), Data: data},
	}, nil
}

// parseAttributes turns key=value flags into attributes, keeping flag order
func parseAttributes(flags []string) ([]mint.Attribute, error) {
	attrs := make([]mint.Attribute, 0, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("attribute %q is not key=value", f)
		}
		attrs = append(attrs, mint.Attribute{Key: key, Value: value})
	}
	return attrs, nil
}

func printValidation(err error) {
	var verr *mint.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pterm.Error.Println(verr.Fields[k])
	}
}

func receiptRows(r *models.Receipt) [][]string {
	rows := [][]string{
		{"Mint", r.MintID},
		{"Object", r.ObjectID},
		{"Digest", r.Digest},
		{"Image", r.ImageURL},
	}
	if r.ExplorerURL != "" {
		rows = append(rows, []string{"Explorer", r.ExplorerURL})
	}
	return rows
}
