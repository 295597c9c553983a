package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hookscan/internal/pipeline"
	"github.com/forPelevin/hookscan/internal/types"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Download a video and extract its hook and script base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			e, err := loadEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := pipeline.New(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			res, err := p.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printAnalysis(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks <idea>",
		Short: "Generate ranked hook candidates for an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			niche, _ := cmd.Flags().GetString("niche")
			platform, _ := cmd.Flags().GetString("platform")

			e, err := loadEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := pipeline.New(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			hooks, err := p.GenerateHooks(cmd.Context(), types.HookRequest{
				Idea:     args[0],
				Niche:    niche,
				Platform: platform,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), hooks)
			}
			printHooks(cmd.OutOrStdout(), hooks)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the hooks as JSON")
	cmd.Flags().String("niche", "", "Content niche, e.g. fitness")
	cmd.Flags().String("platform", "", "Target platform: tiktok, instagram, twitter, linkedin or facebook")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, a pipeline.Analysis) {
	if a.VideoTitle != "" {
		fmt.Fprintf(w, "Video: %s", a.VideoTitle)
		if a.VideoDuration != nil {
			fmt.Fprintf(w, " (%ds)", *a.VideoDuration)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Hook (general):       %s\n", a.Hook.General)
	fmt.Fprintf(w, "Hook (used in video): %s\n", a.Hook.UsedInVideo)
	fmt.Fprintf(w, "Hook type:            %s (%s)\n", a.Hook.Type, a.Hook.Category)
	fmt.Fprintf(w, "\nScript base:\n%s\n", a.ScriptBase)
	fmt.Fprintf(w, "\nTranscript:\n%s\n", a.Transcript)
}

func printHooks(w io.Writer, hooks []types.GeneratedHook) {
	for i, h := range hooks {
		fmt.Fprintf(w, "%d. [%3.0f] %-13s %s\n", i+1, h.RetentionScore, h.Type, h.Text)
		if h.Description != "" {
			fmt.Fprintf(w, "   %s\n", h.Description)
		}
	}
}
