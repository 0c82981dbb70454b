package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/comcut/internal/episode"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Pick episodes for recordings that matched several candidates",
	Long: `List every recording whose episode lookup was ambiguous and prompt for
the right candidate. Selections are stored and used by the next process run.

Enter the candidate number, press enter to skip a recording, or q to quit.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := episode.OpenStore(ctx, cfg.Main.DatabaseFile)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	selected, err := resolvePending(ctx, store, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	logger.Infow("Resolution finished", "selected", selected)
	return nil
}

// the part of Store the prompt loop needs
type selector interface {
	Pending(ctx context.Context) ([]episode.Pending, error)
	Select(ctx context.Context, filename string, position int) error
}

// prompts for every pending recording and returns how many were selected
func resolvePending(ctx context.Context, store selector, in io.Reader, out io.Writer) (int, error) {
	pending, err := store.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		fmt.Fprintln(out, "Nothing to resolve.")
		return 0, nil
	}

	scanner := bufio.NewScanner(in)
	selected := 0
	for _, p := range pending {
		printPending(out, p)

		for {
			fmt.Fprintf(out, "Select 1-%d, enter to skip, q to quit: ", len(p.Candidates))
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return selected, scanner.Err()
			}
			answer := strings.TrimSpace(scanner.Text())

			if answer == "" {
				break
			}
			if strings.EqualFold(answer, "q") {
				return selected, nil
			}
			n, err := strconv.Atoi(answer)
			if err != nil || n < 1 || n > len(p.Candidates) {
				fmt.Fprintln(out, "Invalid input")
				continue
			}
			if err := store.Select(ctx, p.Recording.Filename, n); err != nil {
				return selected, err
			}
			selected++
			break
		}
		fmt.Fprintln(out)
	}
	return selected, nil
}

func printPending(out io.Writer, p episode.Pending) {
	rec := p.Recording
	fmt.Fprintf(out, "%s\n", rec.Filename)
	fmt.Fprintf(out, "  Series:   %s\n", rec.Series)
	if rec.EpisodeName != "" {
		fmt.Fprintf(out, "  Episode:  %s\n", rec.EpisodeName)
	}
	if rec.AirDate != "" {
		fmt.Fprintf(out, "  Aired:    %s\n", rec.AirDate)
	}
	if rec.Description != "" {
		fmt.Fprintf(out, "  Summary:  %s\n", rec.Description)
	}

	rows := make([][]string, 0, len(p.Candidates))
	for i, c := range p.Candidates {
		mark := ""
		if p.Selected == i+1 {
			mark = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1) + mark,
			c.Code(),
			c.Name,
			c.FirstAired,
			truncate(c.Overview, 60),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Code", "Name", "Aired", "Overview"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
