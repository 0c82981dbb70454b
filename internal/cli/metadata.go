package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mgpai22/comcut/internal/wtv"
)

var metadataJSON bool

var metadataCmd = &cobra.Command{
	Use:   "metadata <recording.wtv>",
	Short: "Print the metadata table of a recording",
	Long: `Decode the metadata table embedded in a .wtv recording and print every
field, followed by the resolved air date.

Examples:
  comcut metadata Show_WXYZ_2020_01_02_20_00_00.wtv
  comcut metadata --json Show_WXYZ_2020_01_02_20_00_00.wtv`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runMetadata,
}

func init() {
	metadataCmd.Flags().
		BoolVar(&metadataJSON, "json", false, "Print fields as JSON")
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	path := args[0]
	meta, err := wtv.DecodeFile(path)
	if err != nil {
		return err
	}
	airDate, _ := wtv.AirDate(meta, filepath.Base(path), true)

	out := cmd.OutOrStdout()
	if metadataJSON {
		fields := make(map[string]string, len(meta))
		for name, v := range meta {
			fields[name] = v.String()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"file":     filepath.Base(path),
			"air_date": airDate,
			"fields":   fields,
		})
	}

	fmt.Fprint(out, renderTable(
		[]string{"Field", "Type", "Value"},
		metadataRows(meta),
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
	if airDate == "" {
		airDate = "unknown"
	}
	fmt.Fprintf(out, "\nAir date: %s\n", airDate)
	return nil
}

// one row per field, sorted by name
func metadataRows(meta wtv.Metadata) [][]string {
	names := make([]string, 0, len(meta))
	for name := range meta {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		v := meta[name]
		rows = append(rows, []string{name, v.Kind.String(), v.String()})
	}
	return rows
}
