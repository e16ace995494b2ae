package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/hexview/materialize"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

var (
	patchOut    string
	patchStream bool
	patchChunk  int64
)

func init() {
	cmd := newPatchCmd()
	cmd.Flags().StringVarP(&patchOut, "out", "o", "", "Directory for the modified copy (default from config)")
	cmd.Flags().BoolVar(&patchStream, "stream", false, "Write the copy in chunks instead of buffering it")
	cmd.Flags().Int64Var(&patchChunk, "chunk", materialize.DefaultChunkSize, "Chunk size for --stream")
	rootCmd.AddCommand(cmd)
}

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <file> <addr=hex>...",
		Short: "Write a modified copy of a file",
		Long: `The patch command applies byte edits and writes the result as
modified_<name> in the output directory. The original file is never changed.

Each edit is an address and one or two hex digits.

Example:
  hexctl patch disk.img 0x1FE=55 0x1FF=AA
  hexctl patch disk.img 16=0 --out ./exports --stream`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd.Context(), args)
		},
	}
	return cmd
}

type patchEdit struct {
	addr int64
	raw  string
}

type patchReport struct {
	Path     string       `json:"path"`
	Applied  int          `json:"applied"`
	Ignored  int          `json:"ignored"`
	Size     int64        `json:"size"`
	Checksum string       `json:"xxh3"`
	Ranges   []patchRange `json:"ranges"`
}

// patchRange is one contiguous run of edited bytes.
type patchRange struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

func parseEdits(args []string) ([]patchEdit, error) {
	edits := make([]patchEdit, 0, len(args))
	for _, arg := range args {
		addr, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid edit %q, want <addr>=<hex>", arg)
		}
		a, err := parseAddress(addr)
		if err != nil {
			return nil, err
		}
		edits = append(edits, patchEdit{addr: a, raw: value})
	}
	return edits, nil
}

func runPatch(ctx context.Context, args []string) error {
	edits, err := parseEdits(args[1:])
	if err != nil {
		return err
	}
	dir := patchOut
	if dir == "" {
		dir = currentSettings().Export.Dir
	}

	src, closeSrc := openSource()
	defer closeSrc()

	ctl, err := newController(ctx, src, args[0])
	if err != nil {
		return err
	}
	for _, e := range edits {
		if err := applyEdit(ctx, ctl, e); err != nil {
			return err
		}
	}
	printVerbose("%s\n", ctl.Status())

	var report patchReport
	for _, r := range ctl.ModifiedRanges() {
		report.Ranges = append(report.Ranges, patchRange{Offset: r.Off, Length: r.Len})
		printVerbose("  %s +%d\n", hexfmt.Address(r.Off), r.Len)
	}

	sink := materialize.DirSink{Dir: dir}
	if patchStream {
		name := materialize.SuggestedName(ctl.Ref())
		var res materialize.StreamResult
		report.Path, err = sink.Write(ctx, name, func(w io.Writer) error {
			var err error
			res, err = ctl.ExportTo(ctx, w, patchChunk)
			return err
		})
		report.Applied, report.Ignored, report.Size = res.Applied, res.Ignored, res.Written
		report.Checksum = fmt.Sprintf("%016x", res.Checksum)
	} else {
		var exp materialize.Export
		report.Path, exp, err = ctl.SaveTo(ctx, sink)
		report.Applied, report.Ignored, report.Size = exp.Applied, exp.Ignored, exp.Size
		report.Checksum = fmt.Sprintf("%016x", exp.Checksum)
	}
	if err != nil {
		if hexview.IsNoop(err) {
			printInfo("No modifications to save\n")
			return nil
		}
		return err
	}

	if jsonOut {
		return printJSON(report)
	}
	printInfo("Wrote %s (%s, %d edit(s))\n", report.Path, hexfmt.Size(report.Size), report.Applied)
	printVerbose("  xxh3: %s\n", report.Checksum)
	return nil
}

// applyEdit moves the window to e.addr when needed and applies the edit.
func applyEdit(ctx context.Context, ctl *hexview.Controller, e patchEdit) error {
	_, err := ctl.EditByte(e.addr, e.raw)
	if errors.Is(err, hexview.ErrNotLoaded) {
		if err := ctl.Goto(ctx, e.addr); err != nil {
			return err
		}
		_, err = ctl.EditByte(e.addr, e.raw)
	}
	if err != nil {
		return fmt.Errorf("edit %s=%s: %w", hexfmt.Address(e.addr), e.raw, err)
	}
	return nil
}
