package hexview

// Cell is one displayed byte.
type Cell struct {
	Address  int64
	Value    byte // effective value
	Modified bool // pending edit at Address
	Match    bool // inside a search match
	Current  bool // inside the match under the search cursor
}

// Row is one display row of the loaded window.
type Row struct {
	Address int64
	Cells   []Cell
}

// Bytes returns the effective values of the row's cells.
func (r Row) Bytes() []byte {
	out := make([]byte, len(r.Cells))
	for i, cell := range r.Cells {
		out[i] = cell.Value
	}
	return out
}

// RowCount returns the number of display rows the window holds. The last
// row may be short.
func (c *Controller) RowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowCountLocked()
}

func (c *Controller) rowCountLocked() int {
	w := c.cfg.BytesPerRow
	return (c.win.Len() + w - 1) / w
}

// Rows returns up to n display rows starting at window row first. Rows are
// snapshots; they do not follow later edits or loads.
func (c *Controller) Rows(first, n int) []Row {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.rowCountLocked()
	if first < 0 {
		first = 0
	}
	if n <= 0 || first >= total {
		return nil
	}
	n = min(n, total-first)

	view := effectiveView{win: c.win, ov: c.ov}
	cur := c.liveCursorLocked()
	width := c.cfg.BytesPerRow
	base := c.win.Base()

	rows := make([]Row, 0, n)
	for r := first; r < first+n; r++ {
		start := r * width
		end := min(start+width, view.Len())
		row := Row{Address: base + int64(start), Cells: make([]Cell, 0, end-start)}
		for i := start; i < end; i++ {
			addr := base + int64(i)
			_, modified := c.ov.Get(addr)
			cell := Cell{Address: addr, Value: view.At(i), Modified: modified}
			if cur != nil {
				cell.Match, cell.Current = cur.Covers(i)
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}
