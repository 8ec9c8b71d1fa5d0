package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

var (
	searchUser    string
	searchSubject string
	searchGroup   string
	searchLimit   int
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a user's lectures",
		Long: `Search a user's lectures by title and transcript text, then by meaning.

Examples:
  lecturectl search --user <uuid> "entropy"
  lecturectl search --user <uuid> --subject Physics --format json "heat engine"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().StringVar(&searchUser, "user", "", "Owner user id")
	cmd.Flags().StringVar(&searchSubject, "subject", "", "Only lectures with this subject")
	cmd.Flags().StringVar(&searchGroup, "group", "", "Only lectures of this group")
	cmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results to return")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	userID, err := parseUser(searchUser)
	if err != nil {
		return err
	}
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	results, err := app.Lecture.Search(ctx, userID, args[0], repositories.LectureFilters{
		Subject:   searchSubject,
		GroupName: searchGroup,
	}, searchLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ok, err := printJSON(out, results); ok {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "No lectures found for query: %s\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMATCH\tSNIPPET")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Lecture.ID, truncate(r.Lecture.Title, 40), r.MatchIn, truncate(r.Snippet, 60))
	}
	return w.Flush()
}
