package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var capTableCmd = &cobra.Command{
	Use:   "captable",
	Short: "Show the cap table",
	Long: `Summarise share ownership across common, preferred, option and SAFE
holders. The option pool and authorized share counts come from settings.`,
	Args: cobra.NoArgs,
	RunE: runCapTable,
}

var capTableJSON bool

func init() {
	capTableCmd.Flags().BoolVar(&capTableJSON, "json", false, "Print JSON")
	rootCmd.AddCommand(capTableCmd)
}

func runCapTable(cmd *cobra.Command, _ []string) error {
	if capTableService == nil {
		return errNoCapTable
	}

	ct, err := capTableService.Get(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build cap table: %w", err)
	}

	if capTableJSON {
		return printJSON(cmd.OutOrStdout(), ct)
	}

	p := message.NewPrinter(language.English)
	shares := func(v float64) string { return p.Sprintf("%.0f", v) }
	money := func(v float64) string { return p.Sprintf("$%.2f", v) }

	cmd.Println("Shareholders")
	cmd.Println("============")
	for _, sh := range ct.Shareholders {
		cmd.Printf("  %-10s %-28s %14s %16s\n", sh.Class, partyName(sh.Party), shares(sh.Shares), money(sh.Investment))
	}
	cmd.Println()

	cmd.Println("Summary")
	cmd.Println("=======")
	cmd.Printf("  Common shares:     %s\n", shares(ct.CommonShares))
	cmd.Printf("  Preferred shares:  %s\n", shares(ct.PreferredShares))
	cmd.Printf("  Options granted:   %s\n", shares(ct.OptionShares))
	cmd.Printf("  Option pool:       %s (%s remaining)\n", shares(ct.OptionPool), shares(ct.OptionRemaining))
	cmd.Printf("  Total outstanding: %s\n", shares(ct.TotalShares))
	cmd.Printf("  Fully diluted:     %s\n", shares(ct.FullyDiluted))
	cmd.Printf("  Authorized:        %s\n", shares(ct.AuthorizedShares))
	cmd.Printf("  Total funding:     %s\n", money(ct.TotalFunding))
	return nil
}
