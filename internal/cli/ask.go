package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"azusena/internal/app"
	"azusena/internal/rag"
)

func newAskCommand(loadConfig ConfigLoader) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a query through the full pipeline",
		Long: `Builds or reuses the vector index, then answers the query exactly as
POST /api/v1/query would.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, loadConfig, func(a *app.App) error {
				if _, err := a.Sync(ctx, false); err != nil {
					return fmt.Errorf("failed to build index: %w", err)
				}
				resp, err := a.Engine.Answer(ctx, rag.AnswerRequest{Query: args[0]})
				if err != nil {
					return err
				}
				if asJSON {
					data, err := json.MarshalIndent(resp, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal response: %w", err)
					}
					cmd.Println(string(data))
					return nil
				}
				cmd.Println(resp.Response)
				cmd.Printf("\n[route=%s similarity=%.2f knowledge_base=%t]\n", resp.Route, resp.Similarity, resp.UsedKnowledgeBase)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")
	return cmd
}

func newIndexCommand(loadConfig ConfigLoader) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the vector index",
		Long: `Stores the corpus and embeds every article with text. With --force the
index is rebuilt even when INDEX_POLICY=hash finds it up to date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, loadConfig, func(a *app.App) error {
				stats, err := a.Sync(ctx, force)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal stats: %w", err)
				}
				cmd.Println(string(data))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild even if the corpus is unchanged")
	return cmd
}
