package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meur/mintforge/internal/format"
	"github.com/meur/mintforge/internal/models"
)

func collectionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "collection",
		Short: "Show the collection and whether minting is open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Queries.CollectionView(cmd.Context())
			if err != nil {
				return err
			}
			section(view.Name)
			return renderPairs(collectionRows(view))
		},
	}
}

func itemsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "items [address]",
		Short: "List the collection items an address owns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := ownerArg(a, args)
			if err != nil {
				return err
			}
			items, err := a.Queries.OwnedItems(cmd.Context(), owner)
			if err != nil {
				return err
			}
			section(fmt.Sprintf("Items owned by %s", format.ShortAddress(owner)))
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items yet")
				return nil
			}
			return renderTable(itemRows(items))
		},
	}
}

func itemCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "item <object-id>",
		Short: "Show one item with its attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			item, err := a.Queries.Item(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			section(item.Name)
			return renderPairs(itemDetailRows(item))
		},
	}
}

func coinsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "coins [address]",
		Short: "List SUI coins and the total balance of an address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := ownerArg(a, args)
			if err != nil {
				return err
			}
			coins, err := a.Queries.Coins(cmd.Context(), owner)
			if err != nil {
				return err
			}
			section(fmt.Sprintf("Balance %s SUI", coins.Formatted))
			if len(coins.Coins) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No coins; request some from the faucet")
				return nil
			}
			return renderTable(coinRows(coins))
		},
	}
}

func mintsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "mints [address]",
		Short: "List recorded mint attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var sender string
			if len(args) > 0 {
				sender = args[0]
			}
			mints, err := a.Store.ListMints(sender, limit)
			if err != nil {
				return err
			}
			if len(mints) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No mints recorded")
				return nil
			}
			return renderTable(mintRows(mints, time.Now()))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of mints to show")
	return cmd
}

func collectionRows(v *models.CollectionView) [][]string {
	status := "open"
	if !v.Eligible {
		status = "closed (" + v.Reason + ")"
	}
	return [][]string{
		{"ID", v.ID},
		{"Description", v.Description},
		{"Creator", v.Creator},
		{"Price", v.PriceSUI + " SUI"},
		{"Supply", fmt.Sprintf("%d / %d (%.0f%%)", v.CurrentSupply, v.MaxSupply, v.Progress)},
		{"Minting", status},
		{"Ends", v.EndTime.Format(time.RFC3339) + " (" + v.TimeRemaining + ")"},
	}
}

func itemRows(items []models.Item) [][]string {
	rows := [][]string{{"Object", "Name", "Image", "Attributes"}}
	for _, it := range items {
		rows = append(rows, []string{
			format.ShortAddress(it.ObjectID),
			it.Name,
			it.ImageURL,
			strconv.Itoa(len(it.Attributes)),
		})
	}
	return rows
}

func itemDetailRows(it *models.Item) [][]string {
	rows := [][]string{
		{"Object", it.ObjectID},
		{"Description", it.Description},
		{"Image", it.ImageURL},
		{"Creator", it.Creator},
	}
	keys := make([]string, 0, len(it.Attributes))
	for k := range it.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []string{k, it.Attributes[k]})
	}
	return rows
}

func coinRows(list *models.CoinList) [][]string {
	rows := [][]string{{"Coin", "Balance (SUI)"}}
	for _, c := range list.Coins {
		rows = append(rows, []string{format.ShortAddress(c.CoinObjectID), format.FormatSUIExact(c.Balance)})
	}
	return rows
}

func mintRows(mints []models.Mint, now time.Time) [][]string {
	rows := [][]string{{"ID", "Name", "Status", "Digest", "Created"}}
	for _, m := range mints {
		status := string(m.Status)
		if m.Error != "" {
			status += ": " + truncate(m.Error, 40)
		}
		rows = append(rows, []string{
			m.ID[:min(8, len(m.ID))],
			m.Name,
			status,
			m.Digest,
			humanize.RelTime(m.CreatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
