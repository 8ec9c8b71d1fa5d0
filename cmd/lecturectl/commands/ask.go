package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/chat"
)

var askUser string

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <lecture-id|all> <question>",
		Short: "Ask a question about one lecture or all of a user's lectures",
		Args:  cobra.ExactArgs(2),
		RunE:  runAsk,
	}
	cmd.Flags().StringVar(&askUser, "user", "", "Owner user id")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	userID, err := parseUser(askUser)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	var answer *chat.Answer
	if args[0] == "all" {
		answer, err = app.Chat.AskGlobal(ctx, userID, args[1], nil, repositories.LectureFilters{})
	} else {
		answer, err = app.Chat.Ask(ctx, userID, args[0], args[1], nil)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ok, err := printJSON(out, answer); ok {
		return err
	}
	fmt.Fprintln(out, answer.Answer)
	for _, s := range answer.Sources {
		label := s.LectureTitle
		if label == "" {
			label = s.LectureID
		}
		fmt.Fprintf(out, "  [%.0fs-%.0fs] %s %s\n", s.StartTime, s.EndTime, label, truncate(s.Text, 60))
	}
	return nil
}
