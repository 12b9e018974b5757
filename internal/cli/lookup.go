package cli

import (
	"github.com/spf13/cobra"

	"azusena/internal/app"
)

func newLookupCommand(loadConfig ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [number]",
		Short: "Show an article by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, loadConfig, func(a *app.App) error {
				if _, err := a.LoadArticles(ctx); err != nil {
					return err
				}
				resp, err := a.Engine.Article(ctx, args[0])
				cmd.Println(resp.Response)
				return err
			})
		},
	}
}

func newThemeCommand(loadConfig ConfigLoader) *cobra.Command {
	var subtheme string
	cmd := &cobra.Command{
		Use:   "theme [tema]",
		Short: "List the articles of a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, loadConfig, func(a *app.App) error {
				if _, err := a.LoadArticles(ctx); err != nil {
					return err
				}
				text, err := a.Engine.Theme(ctx, args[0], subtheme)
				if err != nil {
					return err
				}
				cmd.Println(text)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&subtheme, "subtheme", "s", "", "restrict the listing to a subtheme")
	return cmd
}
