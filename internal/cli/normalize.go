package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"credsearch/internal/search/normalize"
)

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize {text}",
		Short: "Print the search key a query resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			key, ok := normalize.New().Normalize(raw)
			if !ok {
				return fmt.Errorf("%q does not name a domain or a known service", raw)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
