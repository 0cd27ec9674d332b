package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/sentences"
)

const (
	flagCount        = "count"
	flagContext      = "context"
	flagExisting     = "existing"
	flagExistingFile = "existing-file"
)

type generateOutput struct {
	Word      string   `json:"word"`
	Sentences []string `json:"sentences"`
	Count     int      `json:"count"`
}

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagContext, "", "Optional domain or style for the sentences")
	cmd.Flags().String(flagLanguage, "", "Sentence language (default from config)")
	cmd.Flags().String(flagModel, "", "Model override for providers that honour it")
}

func generationOptions(cmd *cobra.Command) sentences.Options {
	domain, _ := cmd.Flags().GetString(flagContext)
	lang, _ := cmd.Flags().GetString(flagLanguage)
	model, _ := cmd.Flags().GetString(flagModel)
	return sentences.Options{
		Context:  domain,
		Language: lang,
		Provider: providers.Selection{Model: model},
	}
}

func newGenerateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate WORD",
		Short: "Generate distinct example sentences for a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt(flagCount)
			out, err := a.sentences.Generate(cmd.Context(), args[0], count, generationOptions(cmd))
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, generateOutput{Word: args[0], Sentences: out, Count: len(out)})
			}
			for i, s := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, s)
			}
			if len(out) < count {
				fmt.Fprintf(cmd.ErrOrStderr(), "only %d of %d sentences could be generated\n", len(out), count)
			}
			return nil
		},
	}
	cmd.Flags().IntP(flagCount, "n", sentences.DefaultBatchSize, "Number of sentences")
	addGenerationFlags(cmd)
	return cmd
}

func newRegenerateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate WORD",
		Short: "Write one new sentence for a word that differs from the existing ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := existingSentences(cmd)
			if err != nil {
				return err
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			s, err := a.sentences.RegenerateOne(cmd.Context(), args[0], existing, generationOptions(cmd))
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, map[string]string{"word": args[0], "sentence": s})
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringArray(flagExisting, nil, "An existing sentence to avoid (repeatable)")
	cmd.Flags().String(flagExistingFile, "", "File with one existing sentence per line")
	addGenerationFlags(cmd)
	return cmd
}

// existingSentences merges --existing values with the lines of --existing-file.
func existingSentences(cmd *cobra.Command) ([]string, error) {
	existing, _ := cmd.Flags().GetStringArray(flagExisting)
	path, _ := cmd.Flags().GetString(flagExistingFile)
	if path == "" {
		return existing, nil
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return append(existing, lines...), nil
}

// readLines returns the non-blank trimmed lines of path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
