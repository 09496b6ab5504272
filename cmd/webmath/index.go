package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/NesmitC/project-webmath/internal/knowledge"
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index [corpus]",
	Short: "Rebuild retrieval indexes",
	Long:  `Reloads the corpus sources, embeds every chunk and writes the index files. Without an argument all corpora are rebuilt.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		blobs, err := a.blobs()
		if err != nil {
			return err
		}
		set, err := a.knowledge(blobs)
		if err != nil {
			return err
		}
		names := set.Names()
		if len(args) == 1 {
			if _, ok := set.Index(args[0]); !ok {
				return fmt.Errorf("%w: %s (have %v)", knowledge.ErrUnknownCorpus, args[0], names)
			}
			names = args
		}

		for _, name := range names {
			var bar *progressbar.ProgressBar
			n, err := set.Reindex(cmd.Context(), name, func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetDescription("Embedding "+name),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set(done)
			})
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("index %s: %w", name, err)
			}
			fmt.Printf("%s: %d chunks indexed into %s\n", name, n, a.cfg.IndexDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildIndexCmd)
}
