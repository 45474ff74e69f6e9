package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tippool/internal/extract"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a partner roster from extracted timesheet text",
		Long:  "Reads timesheet text from a file (or stdin when no file is given) and prints the partner/hours roster the extraction worker would produce.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			roster, err := extract.ParseRoster(string(raw))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render("no partner lines recognized"))
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range roster {
				fmt.Fprintf(out, "%s  %s\n",
					nameStyle.Render(fmt.Sprintf("%-20s", p.Name)),
					amountStyle.Render(p.Hours.String()+"h"))
			}
			return nil
		},
	}
	return cmd
}
