package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/spf13/cobra"
)

// rangesOutput is what the ranges command prints
type rangesOutput struct {
	Ranges     []string       `json:"ranges"`
	Outcome    rangle.Outcome `json:"outcome"`
	MostRecent int64          `json:"mostRecent"`
	Merge      *mergeOutput   `json:"merge,omitempty"`
}

type mergeOutput struct {
	Left   string `json:"left"`
	Right  string `json:"right"`
	Reason string `json:"reason"`
}

func newRangesCmd() *cobra.Command {
	var (
		itemsPath string
		opts      rangle.Options
	)

	cmd := &cobra.Command{
		Use:   "ranges [range...]",
		Short: "Compute the next chunk list for a client",
		Long: `Reads items from --items (a JSON object keyed by id, or an array of objects
with an "id" or "uid" field) and prints the chunk list a client holding the
given ranges should use next. Ranges look like "0-10:3"; pass none for a
first sync.`,
		Example: `  rangectl ranges --items notes.json 0-10:2 10-20:1 20-30:4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadItems(itemsPath)
			if err != nil {
				return err
			}

			res, err := rangle.Reconcile(items, args, opts)
			if err != nil {
				return err
			}

			out := rangesOutput{
				Ranges:     res.Strings(),
				Outcome:    res.Outcome,
				MostRecent: res.MostRecent,
			}
			if res.Merge != nil {
				// Merge indexes refer to the client's chunks
				out.Merge = &mergeOutput{
					Left:   args[res.Merge.Left],
					Right:  args[res.Merge.Right],
					Reason: string(res.Merge.Reason),
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&itemsPath, "items", "", "JSON file with the server items (- for stdin)")
	cmd.Flags().StringVar(&opts.Path, "path", rangle.DefaultPath, "item field holding the timestamp (at most one '.')")
	cmd.Flags().IntVar(&opts.MaxClientChunks, "max-chunks", rangle.DefaultMaxClientChunks, "chunk ceiling that triggers consolidation")
	cmd.Flags().Float64Var(&opts.MinValidChunkRatio, "min-valid-ratio", rangle.DefaultMinValidChunkRatio, "validity ratio at or below which a chunk is evicted")
	cmd.Flags().Float64Var(&opts.MaxClientStorageRatio, "max-storage-ratio", rangle.DefaultMaxClientStorageRatio, "client/server item ratio that resets the client (negative disables)")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

// loadItems reads either {"id": {...}} or [{"id": ...}, ...]
func loadItems(path string) (rangle.Items, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open items: %w", err)
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var byID map[string]rangle.Item
	if err := json.Unmarshal(raw, &byID); err == nil {
		return rangle.Items(byID), nil
	}

	var list []rangle.Item
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode items %s: expected an object or an array", path)
	}

	items := make(rangle.Items, len(list))
	for i, item := range list {
		id := itemID(item)
		if id == "" {
			id = strconv.Itoa(i)
		}
		items[id] = item
	}
	return items, nil
}

func itemID(item rangle.Item) string {
	for _, k := range []string{"id", "uid"} {
		switch v := item[k].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
