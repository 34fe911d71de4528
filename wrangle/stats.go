package wrangle

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// FileStats counts what one definition file contributed to a document.
type FileStats struct {
	File     string
	Records  int
	Selected int
	Variants int
	Bytes    int
}

// WriteStats writes a table of per-file statistics with a total row.
func (d *Document) WriteStats(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Records", "Selected", "Variants", "Bytes"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	table.SetAutoWrapText(false)

	var total FileStats
	for _, s := range d.Stats {
		table.Append(s.row())
		total.Records += s.Records
		total.Selected += s.Selected
		total.Variants += s.Variants
		total.Bytes += s.Bytes
	}
	total.File = "total"
	table.SetFooter(total.row())

	table.Render()
}

func (s *FileStats) row() []string {
	return []string{
		s.File,
		strconv.Itoa(s.Records),
		strconv.Itoa(s.Selected),
		strconv.Itoa(s.Variants),
		strconv.Itoa(s.Bytes),
	}
}
