package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

var (
	searchOffset     string
	searchPages      int
	searchMaxResults int
)

func init() {
	cmd := newSearchCmd()
	cmd.Flags().StringVarP(&searchOffset, "offset", "o", "0", "Start of the searched region")
	cmd.Flags().IntVar(&searchPages, "pages", 128, "Pages to load before searching (0 = to end of file)")
	cmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "Limit results (0 = unlimited)")
	rootCmd.AddCommand(cmd)
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <file> <hex-pattern>",
		Short: "Find a byte pattern in a loaded region",
		Long: `The search command loads a region of the file and reports every
non-overlapping occurrence of a hex byte pattern inside it. Bytes past the
loaded region are not searched; widen it with --pages.

Example:
  hexctl search disk.img "55 AA"
  hexctl search disk.img 0xFFD8FF --offset 0x100000 --pages 0
  hexctl search disk.img 4D5A --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args)
		},
	}
	return cmd
}

type searchReport struct {
	Pattern string  `json:"pattern"`
	From    int64   `json:"from"`
	To      int64   `json:"to"`
	Matches []int64 `json:"matches"`
}

func runSearch(ctx context.Context, args []string) error {
	offset, err := parseAddress(searchOffset)
	if err != nil {
		return err
	}

	src, closeSrc := openSource()
	defer closeSrc()

	ctl, err := newController(ctx, src, args[0])
	if err != nil {
		return err
	}
	if offset != 0 {
		if err := ctl.Goto(ctx, offset); err != nil {
			return err
		}
	}
	if err := loadPages(ctx, ctl, searchPages); err != nil {
		return err
	}

	printVerbose("Searching %s-%s\n", hexfmt.Address(ctl.Base()), hexfmt.Address(ctl.End()))
	res, err := ctl.Search(args[1])
	if err != nil {
		return err
	}

	report := searchReport{
		Pattern: fmt.Sprintf("% X", res.Pattern),
		From:    ctl.Base(),
		To:      ctl.End(),
		Matches: []int64{},
	}
	for i, m := range res.Matches {
		if searchMaxResults > 0 && i >= searchMaxResults {
			break
		}
		report.Matches = append(report.Matches, ctl.Base()+int64(m.Start))
	}

	if jsonOut {
		return printJSON(report)
	}
	if res.Empty() {
		printInfo("No matches for %s in %s-%s\n", report.Pattern, hexfmt.Address(report.From), hexfmt.Address(report.To))
		return nil
	}
	for _, addr := range report.Matches {
		printInfo("%s\n", hexfmt.Address(addr))
	}
	printInfo("\n%d match(es) for %s\n", res.Count(), report.Pattern)
	if ctl.NeedsMore() {
		printInfo("Searched %s of %s; use --pages to widen\n", hexfmt.Size(int64(ctl.Len())), hexfmt.Size(ctl.TotalSize()))
	}
	return nil
}

// loadPages appends up to n pages after the first, or until the end of the
// file when n is 0.
func loadPages(ctx context.Context, ctl *hexview.Controller, n int) error {
	for i := 1; n == 0 || i < n; i++ {
		ok, err := ctl.LoadMore(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return nil
}
