// Package cli implements the charterbook command line.
package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// annotationNeeds narrows what a command needs from the bootstrap. Settings
// commands keep working while the configured store is unreachable.
const (
	annotationNeeds = "charterbook/needs"
	needsSettings   = "settings"
	needsNothing    = "nothing"
)

var version = "dev"

// Services wired by the bootstrap, or by tests through SetServices.
var (
	relationService driving.RelationService
	documentService driving.DocumentService
	capTableService driving.CapTableService
	seedService     driving.SeedService
	settingsService driving.SettingsService
	metricsHandler  http.Handler
)

// Services holds the driving ports the commands call.
type Services struct {
	Relations driving.RelationService
	Documents driving.DocumentService
	CapTable  driving.CapTableService
	Seed      driving.SeedService
	Settings  driving.SettingsService

	// Metrics serves the Prometheus registry. It may be nil.
	Metrics http.Handler
}

// Options are the global flags handed to the bootstrap.
type Options struct {
	Verbose   bool
	ConfigDir string
	Backend   string
	Org       string

	// ConfigOnly asks for the settings service alone.
	ConfigOnly bool
}

// Bootstrap builds the services for one invocation. The returned release
// function closes whatever the services hold open.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrap
	release   = func() {}
	globals   Options
)

var rootCmd = &cobra.Command{
	Use:   "charterbook",
	Short: "Corporate records with live relation status",
	Long: `charterbook keeps a company's corporate documents and the relations built
on them: state registrations, employees, shareholders, option grants and
more. Every relation is enriched with the documents it references, the
role slots they fill and a Current, Outdated or Incomplete status.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&globals.ConfigDir, "config-dir", "", "Configuration directory (default ~/.charterbook)")
	flags.StringVar(&globals.Backend, "backend", "", "Override store.backend (memory, sqlite, redis, postgres)")
	flags.StringVar(&globals.Org, "org", "", "Override store.org")
}

// SetBootstrap installs the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services.
func SetServices(s *Services) {
	relationService = s.Relations
	documentService = s.Documents
	capTableService = s.CapTable
	seedService = s.Seed
	settingsService = s.Settings
	metricsHandler = s.Metrics
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	defer func() { release() }()
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globals.Verbose)

	needs := cmd.Annotations[annotationNeeds]
	if bootstrap == nil || needs == needsNothing {
		return nil
	}

	opts := globals
	opts.ConfigOnly = needs == needsSettings
	if opts.ConfigOnly && settingsService != nil {
		return nil
	}
	if !opts.ConfigOnly && relationService != nil {
		return nil
	}

	services, rel, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return err
	}
	SetServices(services)
	if rel != nil {
		release = rel
	}
	return nil
}

var (
	errNoRelations = errors.New("relation service not configured")
	errNoDocuments = errors.New("document service not configured")
	errNoSettings  = errors.New("settings service not configured")
	errNoCapTable  = errors.New("cap table service not configured")
)
