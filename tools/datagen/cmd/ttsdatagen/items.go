package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
)

const (
	flagWord     = "word"
	flagStatus   = "status"
	flagLimit    = "limit"
	flagOffset   = "offset"
	flagSentence = "sentence"
	flagFrom     = "from"
)

func newItemsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List, inspect, edit and delete training items",
	}
	cmd.AddCommand(
		newItemsListCmd(c),
		newItemsGetCmd(c),
		newItemsUpdateCmd(c),
		newItemsDeleteCmd(c),
		newItemsDeleteWordCmd(c),
	)
	return cmd
}

func newItemsListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List training items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := persistence.ItemFilter{}
			filter.Word, _ = cmd.Flags().GetString(flagWord)
			filter.Limit, _ = cmd.Flags().GetInt(flagLimit)
			filter.Offset, _ = cmd.Flags().GetInt(flagOffset)
			if s, _ := cmd.Flags().GetString(flagStatus); s != "" {
				st, err := persistence.ParseStatus(s)
				if err != nil {
					return err
				}
				filter.Status = st
			}

			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			items, err := a.store.ListItems(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, map[string]any{"items": items, "count": len(items)})
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "WORD", "STATUS", "CREATED", "SENTENCE")
			for _, it := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ID, it.Word, it.Status,
					it.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(it.Sentence, 60))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String(flagWord, "", "Only items of this word")
	cmd.Flags().String(flagStatus, "", "Only items with this status (pending, generated, exported)")
	cmd.Flags().Int(flagLimit, persistence.DefaultLimit, "Maximum number of items")
	cmd.Flags().Int(flagOffset, 0, "Number of items to skip")
	return cmd
}

func newItemsGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one training item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			item, err := a.store.GetItem(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, item)
		},
	}
}

func newItemsUpdateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a training item",
		Long: `Change fields of a training item. Fields come from flags or, with --from,
from a JSON object such as {"sentence": "...", "status": "pending"}; "-" reads stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			update, err := itemUpdate(cmd)
			if err != nil {
				return err
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			item, err := a.store.UpdateItem(cmd.Context(), ids[0], update)
			if err != nil {
				return err
			}
			return printJSON(cmd, item)
		},
	}
	cmd.Flags().String(flagSentence, "", "New sentence")
	cmd.Flags().String(flagWord, "", "New word")
	cmd.Flags().String(flagStatus, "", "New status")
	cmd.Flags().String(flagVoice, "", "New voice")
	cmd.Flags().String(flagFrom, "", "JSON file with the fields to change, - for stdin")
	return cmd
}

// itemUpdate builds an update from --from or from the field flags.
func itemUpdate(cmd *cobra.Command) (persistence.ItemUpdate, error) {
	if from, _ := cmd.Flags().GetString(flagFrom); from != "" {
		var r io.Reader = cmd.InOrStdin()
		if from != "-" {
			f, err := os.Open(from)
			if err != nil {
				return persistence.ItemUpdate{}, err
			}
			defer f.Close()
			r = f
		}
		return persistence.DecodeItemUpdate(r)
	}

	var u persistence.ItemUpdate
	str := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetString(name)
		return &v
	}
	u.Sentence = str(flagSentence)
	u.Word = str(flagWord)
	u.Voice = str(flagVoice)
	if s := str(flagStatus); s != nil {
		st, err := persistence.ParseStatus(*s)
		if err != nil {
			return u, err
		}
		u.Status = &st
	}
	if u.IsEmpty() {
		return u, persistence.ErrEmptyUpdate
	}
	return u, nil
}

func newItemsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete training items and their audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			var n int
			if len(ids) == 1 {
				var ok bool
				if ok, err = a.store.DeleteItem(cmd.Context(), ids[0]); ok {
					n = 1
				}
			} else {
				n, err = a.store.BulkDelete(cmd.Context(), ids)
			}
			if err != nil {
				return err
			}
			if len(ids) == 1 && n == 0 {
				return fmt.Errorf("item %d: %w", ids[0], persistence.ErrNotFound)
			}
			return c.printDeleted(cmd, n)
		},
	}
}

func newItemsDeleteWordCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-word WORD",
		Short: "Delete every item of a word and its audio folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			n, err := a.folders().DeleteWord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printDeleted(cmd, n)
		},
	}
}

func (c *cli) printDeleted(cmd *cobra.Command, n int) error {
	if c.jsonOutput(cmd) {
		return printJSON(cmd, map[string]int{"deleted_count": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d item(s)\n", n)
	return nil
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show item counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd)
			if err != nil {
				return err
			}
			st, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput(cmd) {
				return printJSON(cmd, st)
			}
			tw := newTable(cmd.OutOrStdout(), "TOTAL", "PENDING", "GENERATED", "EXPORTED", "WORDS")
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", st.Total, st.Pending, st.Generated, st.Exported, st.UniqueWords)
			return tw.Flush()
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
