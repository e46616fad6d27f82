package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zuma-group/bill-integration-platform/internal/datenorm"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/jsonrepair"
	"github.com/zuma-group/bill-integration-platform/internal/pdfsplit"
	"github.com/zuma-group/bill-integration-platform/internal/reconcile"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "billctl",
		Short:         "Offline tools for invoice documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRepairCmd(), newSplitCmd(), newNormalizeDateCmd(), newReconcileCmd())
	return root
}

func newRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair [file]",
		Short: "Repair truncated or malformed JSON read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), jsonrepair.Repair(string(raw)))
			return err
		},
	}
}

func newSplitCmd() *cobra.Command {
	var (
		pages  []string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "split <source.pdf>",
		Short: "Write one PDF per page group",
		Long: "Each --pages flag names one output document as a comma separated list " +
			"of 1-indexed pages or ranges, e.g. --pages 1 --pages 2-3.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			if len(pages) == 0 {
				return fmt.Errorf("at least one --pages group is required")
			}
			targets := make([]pdfsplit.Target, 0, len(pages))
			for i, group := range pages {
				nums, err := parsePageList(group)
				if err != nil {
					return err
				}
				targets = append(targets, pdfsplit.Target{Key: strconv.Itoa(i + 1), PageNumbers: nums})
			}

			parts, err := pdfsplit.NewSplitter(4).Split(context.Background(), src, targets)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			for _, t := range targets {
				name := filepath.Join(outDir, fmt.Sprintf("%s_part%s.pdf", base, t.Key))
				if err := os.WriteFile(name, parts[t.Key], 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", name, err)
				}
				log.Info().Str("file", name).Ints("pages", t.PageNumbers).Msg("wrote part")
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pages, "pages", nil, "page group for one output document (repeatable)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}

func newNormalizeDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-date <date>...",
		Short: "Print each date as yyyy/mm/dd",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), datenorm.Normalize(a)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [invoice.json]",
		Short: "Reconcile the line items and tax of an invoice",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			var inv domain.Invoice
			if err := json.Unmarshal([]byte(jsonrepair.Repair(string(raw))), &inv); err != nil {
				return fmt.Errorf("decoding invoice: %w", err)
			}
			items := make([]reconcile.LineInput, len(inv.LineItems))
			for i, li := range inv.LineItems {
				items[i] = reconcile.LineInput{
					Quantity:  li.Quantity,
					UnitPrice: li.UnitPrice,
					Amount:    li.Amount,
					Tax:       li.Tax,
				}
			}
			summary := reconcile.ReconcileInvoice(items, inv.TaxAmount, inv.TaxType)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

// parsePageList parses "1,3-5" into [1 3 4 5].
func parsePageList(group string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(group, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 1 {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		for p := start; p <= end; p++ {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty page list %q", group)
	}
	return out, nil
}
