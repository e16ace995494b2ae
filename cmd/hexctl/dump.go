package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

var (
	dumpOffset  string
	dumpLength  int64
	dumpCharset string
	dumpLower   bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVarP(&dumpOffset, "offset", "o", "0", "Start address (decimal or 0x hex)")
	cmd.Flags().Int64VarP(&dumpLength, "length", "n", 256, "Number of bytes to dump")
	cmd.Flags().StringVar(&dumpCharset, "charset", "", "Text column charset (ascii, cp437, windows-1252, latin1)")
	cmd.Flags().BoolVar(&dumpLower, "lower", false, "Lower-case hex digits")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print a hex dump of a byte range",
		Long: `The dump command prints rows of address, hex bytes and text for a range
of a file. The start is rounded down to a row boundary.

Example:
  hexctl dump disk.img
  hexctl dump disk.img --offset 0x1BE --length 64
  hexctl dump disk.img --charset cp437 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.Context(), args)
		},
	}
	return cmd
}

type dumpRow struct {
	Address int64  `json:"address"`
	Hex     string `json:"hex"`
	Text    string `json:"text"`
}

func runDump(ctx context.Context, args []string) error {
	offset, err := parseAddress(dumpOffset)
	if err != nil {
		return err
	}
	if dumpLength <= 0 {
		return fmt.Errorf("length must be positive, got %d", dumpLength)
	}
	charset := currentSettings().Charset()
	if dumpCharset != "" {
		if charset, err = hexfmt.ParseCharset(dumpCharset); err != nil {
			return err
		}
	}

	src, closeSrc := openSource()
	defer closeSrc()

	ctl, err := newController(ctx, src, args[0])
	if err != nil {
		return err
	}
	rows, err := loadRows(ctx, ctl, offset, dumpLength)
	if err != nil {
		return err
	}

	opts := hexfmt.DumpOptions{
		BytesPerRow: ctl.Config().BytesPerRow,
		Charset:     charset,
		Lower:       dumpLower,
	}
	if jsonOut {
		out := make([]dumpRow, 0, len(rows))
		for _, row := range rows {
			data := row.Bytes()
			out = append(out, dumpRow{
				Address: row.Address,
				Hex:     fmt.Sprintf("% X", data),
				Text:    charset.Text(data),
			})
		}
		return printJSON(out)
	}

	printVerbose("File size: %s\n", hexfmt.Size(ctl.TotalSize()))
	for _, row := range rows {
		if !quiet {
			fmt.Fprintln(os.Stdout, hexfmt.Line(row.Address, row.Bytes(), opts))
		}
	}
	return nil
}

// loadRows positions ctl at offset and loads pages until [offset,
// offset+length) is covered or the file ends. It returns the covering rows.
func loadRows(ctx context.Context, ctl *hexview.Controller, offset, length int64) ([]hexview.Row, error) {
	if offset < 0 || offset >= ctl.TotalSize() {
		if offset == 0 && ctl.TotalSize() == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %#x (file size %#x)", hexview.ErrInvalidAddress, offset, ctl.TotalSize())
	}
	if offset >= ctl.End() || offset < ctl.Base() {
		if err := ctl.Goto(ctx, offset); err != nil {
			return nil, err
		}
	}
	end := min(offset+length, ctl.TotalSize())
	for ctl.End() < end {
		ok, err := ctl.LoadMore(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}

	width := int64(ctl.Config().BytesPerRow)
	first := int((offset - ctl.Base()) / width)
	last := int((end - ctl.Base() + width - 1) / width)
	return ctl.Rows(first, last-first), nil
}
