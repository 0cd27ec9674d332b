package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/config"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/tts"
)

const flagRemote = "remote"

// voiceLister is implemented by backends that can list voices remotely.
type voiceLister interface {
	ListVoices(ctx context.Context, languageCode string) ([]tts.Voice, error)
}

func newVoicesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the TTS backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, _ := cmd.Flags().GetBool(flagRemote)
			voices, err := c.voices(cmd, remote)
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"voices": voices, "default": c.cfg.TTS.Voice})
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "LANGUAGE", "GENDER", "")
			for _, v := range voices {
				mark := ""
				if v.ID == c.cfg.TTS.Voice {
					mark = "(default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Language, v.Gender, mark)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool(flagRemote, false, "Ask the backend for its voices in the configured language")
	return cmd
}

// voices returns the Google catalogue without opening the backend unless a
// remote listing or another backend is asked for.
func (c *cli) voices(cmd *cobra.Command, remote bool) ([]tts.Voice, error) {
	if c.cfg.TTS.Backend == config.BackendGoogle && !remote {
		return tts.TurkishVoices, nil
	}
	a, err := c.services(cmd)
	if err != nil {
		return nil, err
	}
	svc, err := a.ttsService(cmd.Context())
	if err != nil {
		return nil, err
	}
	if lister, ok := svc.(voiceLister); ok && remote {
		return lister.ListVoices(cmd.Context(), c.cfg.TTS.LanguageCode)
	}
	return svc.SupportedVoices(), nil
}
