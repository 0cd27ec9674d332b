package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/providers"
)

func newLLMCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Inspect the sentence generation providers",
	}
	cmd.AddCommand(newLLMStatusCmd(c), newLLMModelsCmd(c))
	return cmd
}

func newLLMStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the default provider and which providers are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			st := a.registry.Status(cmd.Context())
			if c.jsonOutput(cmd) {
				return printJSON(cmd, st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default: %s\n\n", st.Default)
			tw := newTable(cmd.OutOrStdout(), "PROVIDER", "AVAILABLE", "MODELS")
			for _, p := range st.Providers {
				models := strings.Join(p.Models, ", ")
				if p.Error != "" {
					models = "error: " + p.Error
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\n", p.Kind, p.Available, models)
			}
			return tw.Flush()
		},
	}
}

func newLLMModelsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models installed on the local Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			p, ok := a.registry.Get(providers.KindOllama)
			if !ok {
				return fmt.Errorf("provider %s is not registered", providers.KindOllama)
			}
			lister, ok := p.(providers.ModelLister)
			if !ok {
				return fmt.Errorf("provider %s cannot list models", providers.KindOllama)
			}
			models, err := lister.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"models": models})
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}
