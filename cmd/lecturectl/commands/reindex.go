package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

var reindexAll bool

// NewReindexCmd creates the reindex command
func NewReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex [lecture-id]",
		Short: "Rebuild vector collections from stored transcripts",
		Long: `Rebuild the vector collection of one lecture, or of every completed
lecture with --all. Needed after changing the embedding model or chunk size.

Examples:
  lecturectl reindex 3f0c...
  lecturectl reindex --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReindex,
	}
	cmd.Flags().BoolVar(&reindexAll, "all", false, "Reindex every completed lecture")
	return cmd
}

func runReindex(cmd *cobra.Command, args []string) error {
	if reindexAll == (len(args) == 1) {
		return fmt.Errorf("pass either a lecture id or --all")
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	ids := args
	if reindexAll {
		lectures, err := app.Lectures.ListByStatus(ctx, entities.LectureStatusCompleted)
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(lectures))
		for _, l := range lectures {
			ids = append(ids, l.ID)
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, id := range ids {
		n, err := app.Lecture.Reindex(ctx, id)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s\tfailed: %v\n", id, err)
			continue
		}
		fmt.Fprintf(out, "%s\t%d chunks\n", id, n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lectures failed to reindex", failed, len(ids))
	}
	return nil
}
