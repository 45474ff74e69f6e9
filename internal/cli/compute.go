package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tippool/internal/core"
	"tippool/internal/profiles"
)

func newComputeCmd() *cobra.Command {
	var (
		amount       string
		partnerSpecs []string
		profileName  string
		profilesFile string
		breakdown    bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Split a tip pool across partners by hours worked",
		Example: `  tipctl compute --amount 100.00 --partner "Alice:10" --partner "Bob:10" --partner "Carol:10"
  tipctl compute --amount 250.50 --partner "Dana:38.5" --breakdown --profile usd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			partners, err := parsePartnerSpecs(partnerSpecs)
			if err != nil {
				return err
			}

			total, err := core.ParseMoney(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}

			data, err := core.Compute(core.DistributionInput{TotalAmount: total, Partners: partners})
			if err != nil {
				return err
			}

			if breakdown {
				registry, err := loadRegistry(profilesFile)
				if err != nil {
					return err
				}
				set, ok := registry.Get(profileName)
				if !ok {
					return fmt.Errorf("unknown profile %q (have: %s)", profileName, strings.Join(registry.Names(), ", "))
				}
				for i := range data.PartnerPayouts {
					bills, err := core.Allocate(data.PartnerPayouts[i].Payout, set)
					if err != nil {
						return fmt.Errorf("allocate payout for %s: %w", data.PartnerPayouts[i].Name, err)
					}
					data.PartnerPayouts[i].BillBreakdown = bills
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}

			renderDistribution(cmd, data, breakdown)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "total pool amount, e.g. 100.00 (required)")
	cmd.Flags().StringArrayVar(&partnerSpecs, "partner", nil, `partner as "Name:hours", repeatable (required)`)
	cmd.Flags().StringVar(&profileName, "profile", "usd", "denomination profile for --breakdown")
	cmd.Flags().StringVar(&profilesFile, "profiles-file", "", "YAML file with extra denomination profiles")
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "include per-partner bill breakdowns")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("partner")

	return cmd
}

// parsePartnerSpecs turns "Name:hours" flags into engine input. The
// name may itself contain colons; the hours are after the last one.
func parsePartnerSpecs(specs []string) ([]core.PartnerHours, error) {
	partners := make([]core.PartnerHours, 0, len(specs))
	for _, spec := range specs {
		idx := strings.LastIndex(spec, ":")
		if idx <= 0 || idx == len(spec)-1 {
			return nil, fmt.Errorf(`invalid --partner %q: expected "Name:hours"`, spec)
		}
		name := strings.TrimSpace(spec[:idx])
		hours, err := decimal.NewFromString(strings.TrimSpace(spec[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("invalid hours in --partner %q: %w", spec, err)
		}
		partners = append(partners, core.PartnerHours{Name: name, Hours: hours})
	}
	return partners, nil
}

func loadRegistry(path string) (*profiles.Registry, error) {
	if path == "" {
		return profiles.Default(), nil
	}
	return profiles.LoadFile(path)
}

func renderDistribution(cmd *cobra.Command, data core.DistributionData, breakdown bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render("Distribution"))
	fmt.Fprintf(out, "  %s %s\n", dimStyle.Render("total:"), amountStyle.Render(data.TotalAmount.String()))
	fmt.Fprintf(out, "  %s %s\n", dimStyle.Render("hours:"), data.TotalHours.String())
	fmt.Fprintf(out, "  %s %s/h\n\n", dimStyle.Render("rate: "), data.HourlyRate.String())

	for _, p := range data.PartnerPayouts {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			nameStyle.Render(fmt.Sprintf("%-20s", p.Name)),
			dimStyle.Render(fmt.Sprintf("%8sh", p.Hours.String())),
			amountStyle.Render(fmt.Sprintf("%10s", p.Payout.String())))
		if breakdown {
			for _, b := range p.BillBreakdown {
				fmt.Fprintf(out, "      %s\n", dimStyle.Render(fmt.Sprintf("%d x %s", b.Quantity, b.Denomination.String())))
			}
		}
	}

	if breakdown {
		fmt.Fprintf(out, "\n%s\n", headerStyle.Render("Bills needed"))
		for _, b := range core.TotalBillsNeeded(data.PartnerPayouts) {
			fmt.Fprintf(out, "  %d x %s\n", b.Quantity, b.Denomination.String())
		}
	}
}
