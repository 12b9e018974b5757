package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"azusena/internal/corpus"
	"azusena/internal/indexer"
)

func newCheckCommand(loadConfig ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "check [corpus-file]",
		Short: "Validate a corpus file",
		Long: `Loads a .csv or .xlsx corpus and reports its article counts.
Without an argument the file named by CORPUS_PATH is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := corpusPath(loadConfig, args)
			if err != nil {
				return err
			}

			c, err := corpus.Load(path)
			var schemaErr *corpus.SchemaError
			if errors.As(err, &schemaErr) {
				cmd.Printf("%s: missing columns: %s\n", path, strings.Join(schemaErr.Missing, ", "))
				return err
			}
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			stats := indexer.ComputeIndexStats(c, "")
			cmd.Printf("%s: ok\n", path)
			cmd.Printf("  articles with text:    %d\n", stats.ArticlesIndexed)
			cmd.Printf("  articles without text: %d\n", stats.ArticlesIncomplete)
			cmd.Printf("  estimated tokens:      min %d, max %d, p95 %d\n",
				stats.TokenStats.Min, stats.TokenStats.Max, stats.TokenStats.P95)
			cmd.Printf("  corpus hash:           %s\n", stats.CorpusHash)
			return nil
		},
	}
}

func corpusPath(loadConfig ConfigLoader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if loadConfig == nil {
		return "", errors.New("no corpus file given")
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.CorpusPath, nil
}
