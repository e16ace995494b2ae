package hexfmt

import (
	"fmt"
	"io"
	"strings"
)

// DumpOptions configures Dump.
type DumpOptions struct {
	BytesPerRow int     // default 16
	Charset     Charset // default ASCII
	Lower       bool    // lower-case hex digits
}

func (o DumpOptions) withDefaults() DumpOptions {
	if o.BytesPerRow <= 0 {
		o.BytesPerRow = 16
	}
	if o.Charset == "" {
		o.Charset = ASCII
	}
	return o
}

// Line formats one dump row:
//
//	00000010  48 65 6C 6C 6F 20 77 6F  72 6C 64 0A              |Hello world.|
//
// Short rows are padded so the text column stays aligned.
func Line(addr int64, row []byte, opts DumpOptions) string {
	opts = opts.withDefaults()
	var hex strings.Builder
	hex.WriteString(Address(addr))
	hex.WriteString("  ")
	for i := 0; i < opts.BytesPerRow; i++ {
		if i > 0 {
			hex.WriteByte(' ')
			if i == opts.BytesPerRow/2 {
				hex.WriteByte(' ')
			}
		}
		if i < len(row) {
			hex.WriteString(Byte(row[i]))
		} else {
			hex.WriteString("  ")
		}
	}
	head := hex.String()
	if opts.Lower {
		head = strings.ToLower(head)
	}
	return head + "  |" + opts.Charset.Text(row) + "|"
}

// Dump writes data as hex rows starting at address base.
func Dump(w io.Writer, base int64, data []byte, opts DumpOptions) error {
	opts = opts.withDefaults()
	for off := 0; off < len(data); off += opts.BytesPerRow {
		end := min(off+opts.BytesPerRow, len(data))
		if _, err := fmt.Fprintln(w, Line(base+int64(off), data[off:end], opts)); err != nil {
			return err
		}
	}
	return nil
}
