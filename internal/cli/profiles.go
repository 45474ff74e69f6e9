package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProfilesCmd() *cobra.Command {
	var profilesFile string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List available denomination profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(profilesFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range registry.Names() {
				set, ok := registry.Get(name)
				if !ok {
					continue
				}
				values := make([]string, 0, len(set))
				for _, d := range set {
					values = append(values, d.String())
				}
				fmt.Fprintf(out, "%s  %s\n", headerStyle.Render(name), dimStyle.Render(strings.Join(values, " ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profilesFile, "profiles-file", "", "YAML file with extra denomination profiles")
	return cmd
}
