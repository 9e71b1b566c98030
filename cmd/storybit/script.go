package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/scripts"
)

// createScriptCommand creates the script command.
func createScriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Generate a script",
		Long:  "Generate a script for a topic or one of its ideas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := generationRequest(cmd)
			if err != nil {
				return err
			}

			ctx, stop := interruptible(cmd)
			defer stop()

			ctx, a, err := openApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(ctx, a)

			tab := scripts.NewTabID()
			a.Stash.Put(tab, req)
			defer a.Stash.Forget(tab)

			_, _ = color.New(color.Faint).Fprintln(cmd.ErrOrStderr(),
				"Generating script, this can take a few minutes...")

			result, err := a.Generator.Generate(ctx, tab)
			if errors.Is(err, scripts.ErrSignInRequired) {
				return fmt.Errorf("%w: run 'storybit auth login'", err)
			}
			if err != nil {
				return err //nolint:wrapcheck // generator errors are already wrapped
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result.Script); err != nil {
					return fmt.Errorf("failed to encode script: %w", err)
				}
				return nil
			}
			printScript(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().String("topic", "", "Topic of the script")
	cmd.Flags().String("idea", "", "Idea title to write about")
	cmd.Flags().String("tone", "", "Emotional tone")
	cmd.Flags().String("creator-type", "", "Kind of creator the script is for")
	cmd.Flags().String("audience", "", "Audience description")
	cmd.Flags().String("accent", "", "Narration accent")
	cmd.Flags().String("structure", "", "Script structure")
	cmd.Flags().Int("duration", 5, "Video length in minutes")
	cmd.Flags().Bool("json", false, "Print the raw result as JSON")

	return cmd
}

func generationRequest(cmd *cobra.Command) (api.GenerationRequest, error) {
	flags := cmd.Flags()
	str := func(name string) string {
		v, _ := flags.GetString(name)
		return strings.TrimSpace(v)
	}
	duration, _ := flags.GetInt("duration")

	req := api.GenerationRequest{
		Topic:           str("topic"),
		IdeaTitle:       str("idea"),
		Tone:            str("tone"),
		CreatorType:     str("creator-type"),
		Audience:        str("audience"),
		Accent:          str("accent"),
		Structure:       str("structure"),
		DurationMinutes: duration,
	}
	if req.Topic == "" && req.IdeaTitle == "" {
		return req, errors.New("either --topic or --idea is required")
	}
	if duration <= 0 {
		return req, fmt.Errorf("--duration must be positive, got %d", duration)
	}
	return req, nil
}

func printScript(w io.Writer, result *scripts.Result) {
	script := result.Script
	heading := color.New(color.Bold)

	title := script.Title
	if title == "" {
		title = scripts.CacheID(result.Request)
	}
	_, _ = heading.Fprintln(w, title)
	if result.FromCache {
		_, _ = color.New(color.Faint).Fprintln(w, "(cached)")
	}
	if script.Synopsis != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", script.Synopsis)
	}

	if len(script.Structure) > 0 {
		_, _ = heading.Fprintln(w, "\nOutline")
		for _, section := range script.Structure {
			_, _ = fmt.Fprintf(w, "  - %s (%s, %d words)\n", section.Title, section.Duration, section.Words)
		}
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", script.Script)

	if script.EstimatedWordCount > 0 {
		_, _ = color.New(color.FgCyan).Fprintf(w, "\nEstimated words: %d\n", script.EstimatedWordCount)
	}
	if len(script.SourceURLs) > 0 {
		_, _ = heading.Fprintln(w, "\nSources")
		for _, u := range script.SourceURLs {
			_, _ = fmt.Fprintf(w, "  %s\n", u)
		}
	}
}
