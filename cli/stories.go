package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1rvyn/story-builder/catalog"
	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/store"
	"github.com/1rvyn/story-builder/storyfile"
)

func newListCommand(app *App) *cobra.Command {
	var theme, sortBy, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := store.ListOptions{Query: query, SortBy: store.ParseSortBy(sortBy)}
			if theme != "" {
				t, ok := models.ParseTheme(theme)
				if !ok {
					return fmt.Errorf("unknown theme %q", theme)
				}
				opts.Theme = t
			}
			stories, err := app.Stories.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(stories) == 0 {
				app.Printer.Muted("no stories")
				return nil
			}
			for _, s := range stories {
				app.Printer.Line("%s  %-10s %2d scenes  %s", s.ID, s.Theme, len(s.Scenes), s.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "only stories with this theme")
	cmd.Flags().StringVar(&sortBy, "sort", "updated", "updated, created or title")
	cmd.Flags().StringVarP(&query, "query", "q", "", "title search")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <story-id> [file]",
		Short: "Write a story as YAML to a file or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := app.Stories.Get(cmd.Context(), args[0])
			if err != nil {
				return lookupError(err)
			}
			if len(args) == 2 {
				if err := storyfile.Write(story, args[1]); err != nil {
					return err
				}
				app.Printer.Muted("wrote %s", args[1])
				return nil
			}
			data, err := storyfile.Marshal(story)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newImportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create a story from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := storyfile.Read(args[0])
			if err != nil {
				return err
			}
			created, err := app.Stories.Create(cmd.Context(), store.Draft{
				Title:  story.Title,
				Theme:  story.Theme,
				Scenes: story.Scenes,
			})
			if err != nil {
				return err
			}
			app.Printer.Line("%s", created.ID)
			return nil
		},
	}
}

var errNoDatabase = errors.New("DATABASE_URL must be set")

func newSeedCatalogCommand(app *App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load catalog assets into an empty catalog table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.DB == nil {
				return errNoDatabase
			}
			seed, err := catalog.LoadSeed(file)
			if err != nil {
				return err
			}
			n, err := catalog.SeedDatabase(cmd.Context(), app.DB, seed)
			if err != nil {
				return err
			}
			if n == 0 {
				app.Printer.Muted("catalog already has assets, nothing seeded")
				return nil
			}
			app.Printer.Line("seeded %d assets", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "TOML seed file (defaults to the built-in catalog)")
	return cmd
}
