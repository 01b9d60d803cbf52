package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsinfi/prompt-with-friends-backend/internal/api/request"
	"github.com/itsinfi/prompt-with-friends-backend/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session management commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionGetCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var name, mode string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new session and join it as host",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SessionWithPlayer

			req := request.CreateSessionRequest{Name: name, Mode: mode}
			if err := client.Post(cmd.Context(), "/api/v1/sessions", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Host display name")
	cmd.Flags().StringVar(&mode, "mode", "", "Game mode (default: server default)")

	return cmd
}

func newSessionJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SessionWithPlayer

			path := "/api/v1/sessions/" + normalizeCode(args[0]) + "/players"
			if err := client.Post(cmd.Context(), path, request.JoinSessionRequest{Name: name}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Show session state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session

			if err := client.Get(cmd.Context(), "/api/v1/sessions/"+normalizeCode(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
