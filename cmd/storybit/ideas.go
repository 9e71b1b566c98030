package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Prathap331/SB-Next/internal/ideas"
)

// createIdeasCommand creates the ideas command.
func createIdeasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ideas <topic>",
		Short: "Suggest script ideas for a topic",
		Long:  "Suggest script ideas for a topic, waiting for the backend to wake up if needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd)
			defer stop()

			ctx, a, err := openApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			observer := func(p ideas.Progress) {
				if p.State != ideas.Retrying {
					return
				}
				_, _ = color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
					"Backend is starting up, retrying (attempt %d, until %s)...\n",
					p.Attempt, p.Deadline.Format(time.Kitchen))
			}

			result, err := a.Resolver(observer).Resolve(ctx, strings.Join(args, " "))
			if errors.Is(err, ideas.ErrSignInRequired) {
				return fmt.Errorf("%w: run 'storybit auth login'", err)
			}
			if err != nil {
				return fmt.Errorf("failed to get ideas: %w", err)
			}

			printIdeas(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printIdeas(w io.Writer, result *ideas.Result) {
	if result.Advisory != "" {
		_, _ = color.New(color.FgYellow).Fprintln(w, result.Advisory)
		_, _ = fmt.Fprintln(w)
	}

	header := fmt.Sprintf("Ideas for %q", result.Topic)
	if result.FromCache {
		header += " (cached)"
	}
	_, _ = color.New(color.Bold, color.Underline).Fprintln(w, header)
	_, _ = fmt.Fprintln(w)

	title := color.New(color.Bold)
	category := color.New(color.FgCyan)
	for _, idea := range result.Ideas {
		_, _ = title.Fprintf(w, "%d. %s", idea.ID, idea.Title)
		_, _ = category.Fprintf(w, " [%s]\n", idea.Category)
		_, _ = fmt.Fprintf(w, "   %s\n\n", idea.Description)
	}
}
