package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/export"
)

const (
	flagOut   = "out"
	flagPrint = "print"
)

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Package generated audio for training",
	}
	cmd.AddCommand(
		newExportFullCmd(c),
		newExportBundleCmd(c),
		newExportAudioCmd(c),
		newExportLatestCmd(c),
	)
	return cmd
}

func newExportFullCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "full",
		Short: "Write metadata_<timestamp>.csv and mark the items exported",
		Long: `Write a manifest with one "audioPath|sentence" line per generated item under
the output directory and mark those items exported. Exported items are not
offered by later exports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			word, _ := cmd.Flags().GetString(flagWord)
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			res, err := a.packager.FullExport(cmd.Context(), word)
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d item(s) to %s\n", res.Count, res.Path)
			return nil
		},
	}
	cmd.Flags().String(flagWord, "", "Only items of this word")
	return cmd
}

func newExportBundleCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle WORD...",
		Short: "Write a zip of renamed audio files with metadata.csv",
		Long: `Write a zip holding the generated audio of the words renamed 1.wav, 2.wav, ...
in order across words, plus metadata.csv with one "sentence|N.wav" line per file.
Items are not marked exported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			var sum export.BundleSummary
			path, err := writeZip(cmd, a.cfg.OutputDir, export.BundleFilename(args, time.Now()), func(w io.Writer) error {
				var werr error
				sum, werr = a.packager.WriteBundle(cmd.Context(), w, args)
				return werr
			})
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{
					"path": path, "files": sum.Manifest.Len(), "missing": sum.Missing,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d file(s) to %s", sum.Manifest.Len(), path)
			if sum.Missing > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d missing audio file(s) skipped)", sum.Missing)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringP(flagOut, "o", "", "Output zip path (default <output>/<name>.zip)")
	return cmd
}

func newExportAudioCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Write a zip of every generated audio file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("all_audio_%s.zip", time.Now().Format("20060102_150405"))
			var n int
			path, err := writeZip(cmd, a.cfg.OutputDir, name, func(w io.Writer) error {
				var werr error
				n, werr = a.packager.WriteAudioArchive(cmd.Context(), w)
				return werr
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d file(s) to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringP(flagOut, "o", "", "Output zip path (default <output>/<name>.zip)")
	return cmd
}

func newExportLatestCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the newest full export manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := export.LatestManifest(c.cfg.OutputDir)
			if err != nil {
				return err
			}
			if show, _ := cmd.Flags().GetBool(flagPrint); !show {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(cmd.OutOrStdout(), f)
			return err
		},
	}
	cmd.Flags().Bool(flagPrint, false, "Print the manifest instead of its path")
	return cmd
}

// writeZip writes a zip through fn to --out or to root/name. A failed write
// leaves no file behind.
func writeZip(cmd *cobra.Command, root, name string, fn func(io.Writer) error) (string, error) {
	path, _ := cmd.Flags().GetString(flagOut)
	if path == "" {
		path = filepath.Join(root, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = fn(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
