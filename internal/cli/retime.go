package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/comcut/internal/commercial"
	"github.com/mgpai22/comcut/internal/subtitle"
)

var retimeOutput string

var retimeCmd = &cobra.Command{
	Use:   "retime <subtitles> <commercials.xml>",
	Short: "Shift subtitles to match a recording with its commercials cut",
	Long: `Drop every cue that starts inside a commercial break and shift the rest
back by the commercial time that precedes them. SRT, VTT and ASS input is
supported; the output format follows the output extension.

Examples:
  comcut retime show.srt show.xml
  comcut retime show.srt show.xml -o show.eng.vtt`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runRetime,
}

func init() {
	retimeCmd.Flags().
		StringVarP(&retimeOutput, "output", "o", "", "Output path (default: <input>.retimed.<ext>)")
	rootCmd.AddCommand(retimeCmd)
}

func runRetime(cmd *cobra.Command, args []string) error {
	input, xmlPath := args[0], args[1]

	markers, err := commercial.LoadFile(xmlPath)
	if err != nil {
		return err
	}
	keep, err := commercial.InvertStrict(markers)
	if err != nil {
		return err
	}

	file, err := subtitle.Open(input)
	if err != nil {
		return err
	}
	entries := file.Subtitle().Entries
	retimed := subtitle.Retime(entries, keep)
	if err := file.Replace(retimed); err != nil {
		return err
	}

	output := retimeOutput
	if output == "" {
		output = defaultRetimeOutput(input)
	}
	if err := subtitle.Save(file, output); err != nil {
		return err
	}

	logger.Infow("Subtitles retimed",
		"input", input,
		"output", output,
		"cues", len(entries),
		"kept", len(retimed),
	)
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func defaultRetimeOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".retimed" + ext
}
