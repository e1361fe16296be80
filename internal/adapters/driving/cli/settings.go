package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the store backend, organisation, resolver batching,
enrichment and cap table settings.

Settings live in config.toml inside the configuration directory. Environment
variables such as CHARTERBOOK_STORE_BACKEND override the file.`,
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by its configuration key. Run 'charterbook settings keys'
to list the keys.

Examples:
  charterbook settings set store.backend postgres
  charterbook settings set store.postgres_dsn postgres://localhost/charterbook
  charterbook settings set captable.option_pool 2500000`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List setting keys",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsSettings},
	RunE:        runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend.Description())
	cmd.Printf("  Organisation: %s\n", settings.Store.Org)
	cmd.Printf("  Data dir: %s\n", orDefault(settings.Store.DataDir, "(config directory)"))
	cmd.Printf("  Redis address: %s\n", orDefault(settings.Store.RedisAddr, "(not set)"))
	cmd.Printf("  Postgres DSN: %s\n", maskDSN(settings.Store.PostgresDSN))
	if settings.Store.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g reads/s (burst %d)\n", settings.Store.RateLimit, settings.Store.Burst)
	} else {
		cmd.Println("  Rate limit: off")
	}
	cmd.Println()

	cmd.Println("[Resolver]")
	cmd.Printf("  Batch wait: %s\n", settings.Resolver.BatchWait)
	cmd.Printf("  Batch capacity: %d\n", settings.Resolver.BatchCapacity)
	cmd.Println()

	cmd.Println("[Enrichment]")
	cmd.Printf("  Prefer latest slot: %t\n", settings.Enrichment.PreferLatestSlot)
	cmd.Printf("  Concurrency: %d\n", settings.Enrichment.Concurrency)
	cmd.Println()

	cmd.Println("[Cap Table]")
	cmd.Printf("  Option pool: %.0f\n", settings.CapTable.OptionPool)
	cmd.Printf("  Authorized shares: %.0f\n", settings.CapTable.AuthorizedShares)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Log level: %s\n", settings.Log.Level)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'charterbook settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if strings.HasSuffix(key, "_dsn") {
		shown = maskDSN(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// maskDSN hides the password of a connection string.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "****"
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
