package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/lecture-assistant/pkg/jwt"
)

var (
	tokenUser  string
	tokenEmail string
	tokenAdmin bool
)

// NewTokenCmd creates the token command
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with JWT_ACCESS_SECRET",
		Long: `Issue an access token for local testing. A new user id is generated
unless --user is given.

Examples:
  lecturectl token
  lecturectl token --user <uuid> --admin`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}
	cmd.Flags().StringVar(&tokenUser, "user", "", "User id (default: random)")
	cmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	cmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant the admin role")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	userID := uuid.New()
	if tokenUser != "" {
		id, err := parseUser(tokenUser)
		if err != nil {
			return err
		}
		userID = id
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	role := ""
	if tokenAdmin {
		role = jwt.RoleAdmin
	}

	manager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)
	token, err := manager.GenerateAccessToken(userID, tokenEmail, role)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ok, err := printJSON(out, map[string]string{"user_id": userID.String(), "access_token": token}); ok {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
