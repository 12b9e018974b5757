// Package cli implements the azusenactl operator commands.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"azusena/internal/app"
	"azusena/internal/config"
)

// ConfigLoader returns the process configuration.
type ConfigLoader func() (*config.Config, error)

// NewRootCommand builds the azusenactl command tree.
func NewRootCommand(loadConfig ConfigLoader) *cobra.Command {
	root := &cobra.Command{
		Use:   "azusenactl",
		Short: "Operate the AzuSENA article corpus",
		Long: `azusenactl validates the article corpus, looks up articles and runs
queries through the same pipeline the API server uses.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newCheckCommand(loadConfig),
		newLookupCommand(loadConfig),
		newThemeCommand(loadConfig),
		newAskCommand(loadConfig),
		newIndexCommand(loadConfig),
	)
	return root
}

// withApp loads the configuration, builds the application and runs fn.
func withApp(ctx context.Context, loadConfig ConfigLoader, fn func(a *app.App) error) error {
	if loadConfig == nil {
		return errors.New("configuration loader not set")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(a)
}
