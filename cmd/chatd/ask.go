package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatd/pkg/types"
)

func newAskCmd(opts *cliOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Load the model, answer one prompt and exit",
		Example: "  chatd ask \"Why is the sky blue?\"\n" +
			"  chatd ask --engine mock hello",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.mgr.Release()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if timeout > 0 {
				var tcancel context.CancelFunc
				ctx, tcancel = context.WithTimeout(ctx, timeout)
				defer tcancel()
			}

			content := strings.TrimSpace(strings.Join(args, " "))
			resp, err := a.svc.Chat(ctx, types.ChatRequest{
				Messages: []types.Message{types.NewMessage(types.RoleUser, content)},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Reply.Content)
			a.log.Debug().
				Int64("elapsed_ms", resp.ElapsedMS).
				Int("est_tokens", resp.EstTokens).
				Msg("reply complete")
			return nil
		},
	}
	// Generous default: the first ask pays the model load on top of the
	// generation itself.
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall deadline including the model load (0 disables)")
	return cmd
}
