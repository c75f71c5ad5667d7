package exporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"remarkcli/pkg/contracts/domain"
)

// RenderText writes a table as aligned plain text. Nulls render as the null glyph.
func RenderText(w io.Writer, table domain.Table) error {
	title := table.Title
	if title == "" {
		title = table.Name
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title)))); err != nil {
		return err
	}
	if table.NoData || len(table.Rows) == 0 {
		_, err := fmt.Fprintln(w, "(no data)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Name
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}
