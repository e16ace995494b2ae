package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/internal/hexfmt"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Report size and leading bytes of a file",
		Long: `The info command opens a file the way the viewer does and reports its
size, how many pages a full scroll would load and its first bytes.

Example:
  hexctl info disk.img
  hexctl info /storage/case1/disk.img --server http://127.0.0.1:8765 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), args)
		},
	}
	return cmd
}

type fileInfo struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
	PageBytes int64  `json:"page_bytes"`
	Pages     int64  `json:"pages"`
	Magic     string `json:"magic"`
}

func runInfo(ctx context.Context, args []string) error {
	src, closeSrc := openSource()
	defer closeSrc()

	ctl, err := newController(ctx, src, args[0])
	if err != nil {
		return err
	}

	page := ctl.Config().PageBytes()
	info := fileInfo{
		File:      args[0],
		Name:      ctl.Ref().Name(),
		Size:      ctl.TotalSize(),
		SizeHuman: hexfmt.Size(ctl.TotalSize()),
		PageBytes: page,
		Pages:     (ctl.TotalSize() + page - 1) / page,
	}
	if rows := ctl.Rows(0, 1); len(rows) > 0 {
		head := rows[0].Bytes()
		info.Magic = fmt.Sprintf("% X", head[:min(len(head), 8)])
	}

	if jsonOut {
		return printJSON(info)
	}
	printInfo("\nFile Information:\n")
	printInfo("  File: %s\n", info.File)
	printInfo("  Size: %s (%d bytes)\n", info.SizeHuman, info.Size)
	printInfo("  Pages: %d of %d bytes\n", info.Pages, info.PageBytes)
	if info.Magic != "" {
		printInfo("  Magic: %s\n", info.Magic)
	}
	printVerbose("  Session: %s\n", ctl.ID())
	return nil
}
