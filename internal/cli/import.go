package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/reel/internal/domain"
	"github.com/jbweber/homelab/reel/internal/repository"
	"github.com/jbweber/homelab/reel/internal/service"
)

type importRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import movies from a JSON array",
		Long: `Import movies from a JSON array of {"name": "..."} objects.

The whole file is saved in one transaction: a blank name anywhere aborts the
import and nothing is stored. Use "-" to read from stdin.

Example:
  reel import movies.json`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			movies, err := readMovies(cmd, args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}

			ds, err := cfg.InitializeDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer ds.Close()

			publisher, err := newPublisher(cfg, logger)
			if err != nil {
				return err
			}
			defer publisher.Close()

			repo := repository.NewMovieRepository(ds)
			defer repo.Close()

			svc := service.NewMovieService(repo, publisher, logger)

			var saved []domain.Movie
			for movie, err := range svc.SaveAll(cmd.Context(), movies) {
				if err != nil {
					return fmt.Errorf("import aborted, nothing was saved: %w", err)
				}
				saved = append(saved, movie)
			}

			out := cmd.OutOrStdout()
			for _, m := range saved {
				fmt.Fprintf(out, "%d\t%s\n", m.ID, m.Name)
			}
			fmt.Fprintf(out, "imported %d movies\n", len(saved))
			return nil
		},
	}
}

func readMovies(cmd *cobra.Command, path string) ([]domain.Movie, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var records []importRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	movies := make([]domain.Movie, len(records))
	for i, rec := range records {
		movies[i] = domain.Movie{ID: rec.ID, Name: rec.Name}
	}
	return movies, nil
}
