package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/sentences"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/synthesis"
)

const (
	flagFile         = "file"
	flagSampleRate   = "sample-rate"
	flagSpeakingRate = "speaking-rate"
	flagPitch        = "pitch"
	flagVolumeGain   = "volume-gain-db"
)

func addVoiceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(flagVoice, "", "Voice id (default from config)")
	f.Int(flagSampleRate, 0, "Output sample rate in Hz")
	f.Float64(flagSpeakingRate, 0, "Speaking rate, 0.25 to 4.0")
	f.Float64(flagPitch, 0, "Pitch in semitones, -20 to 20")
	f.Float64(flagVolumeGain, 0, "Volume gain in dB, -96 to 16")
}

// voiceParams overlays the voice flags that were set on the configured params.
func voiceParams(cmd *cobra.Command, p synthesis.Params) synthesis.Params {
	f := cmd.Flags()
	if f.Changed(flagVoice) {
		p.Voice, _ = f.GetString(flagVoice)
	}
	if f.Changed(flagSampleRate) {
		p.SampleRate, _ = f.GetInt(flagSampleRate)
	}
	if f.Changed(flagSpeakingRate) {
		p.SpeakingRate, _ = f.GetFloat64(flagSpeakingRate)
	}
	if f.Changed(flagPitch) {
		p.Pitch, _ = f.GetFloat64(flagPitch)
	}
	if f.Changed(flagVolumeGain) {
		p.VolumeGainDB, _ = f.GetFloat64(flagVolumeGain)
	}
	return p
}

func newSynthesizeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize WORD [SENTENCE...]",
		Short: "Synthesize sentences for a word and record them as training items",
		Long: `Synthesize each sentence into <output>/<word>/ and record it as a generated
training item. Sentences that already have audio for the word are skipped.
Sentences come from the arguments and from --file, one per line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, list := args[0], args[1:]
			if path, _ := cmd.Flags().GetString(flagFile); path != "" {
				lines, err := readLines(path)
				if err != nil {
					return err
				}
				list = append(list, lines...)
			}
			if len(list) == 0 {
				return errors.New("no sentences given")
			}

			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			gen, err := a.audio(cmd.Context())
			if err != nil {
				return err
			}
			br := gen.GenerateBatch(cmd.Context(), word, list, voiceParams(cmd, a.params()))
			return c.printBatch(cmd, br)
		},
	}
	cmd.Flags().StringP(flagFile, "f", "", "File with one sentence per line")
	addVoiceFlags(cmd)
	return cmd
}

func newPipelineCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline WORD",
		Short: "Generate sentences for a word and synthesize them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := args[0]
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			gen, err := a.audio(cmd.Context())
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt(flagCount)
			list, err := a.sentences.Generate(cmd.Context(), word, count, generationOptions(cmd))
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("no sentences generated for %q", word)
			}
			br := gen.GenerateBatch(cmd.Context(), word, list, voiceParams(cmd, a.params()))
			return c.printBatch(cmd, br)
		},
	}
	cmd.Flags().IntP(flagCount, "n", sentences.DefaultBatchSize, "Number of sentences")
	addGenerationFlags(cmd)
	addVoiceFlags(cmd)
	return cmd
}

// printBatch prints the outcome of every sentence. It fails when nothing
// succeeded.
func (c *cli) printBatch(cmd *cobra.Command, br synthesis.BatchResult) error {
	if c.jsonOutput(cmd) {
		if err := printJSON(cmd, br); err != nil {
			return err
		}
	} else {
		tw := newTable(cmd.OutOrStdout(), "STATUS", "ID", "DURATION", "PATH/ERROR", "SENTENCE")
		for _, r := range br.Results {
			status, detail := "generated", r.Path
			switch {
			case !r.Success:
				status, detail = "failed", r.Error
			case r.Skipped:
				status = "skipped"
			}
			fmt.Fprintf(tw, "%s\t%d\t%.2fs\t%s\t%s\n", status, r.ID, r.DurationSeconds, detail, truncate(r.Text, 50))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d generated, %d skipped, %d failed\n",
			br.Word, br.Generated, br.Skipped, br.Failed)
	}
	if br.Failed > 0 && br.Generated+br.Skipped == 0 {
		return fmt.Errorf("all %d sentences failed", br.Failed)
	}
	return nil
}
