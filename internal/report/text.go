package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/olekukonko/tablewriter"
)

// previewItems is how many array elements WriteText prints before eliding.
const previewItems = 6

// WriteText prints r as a header block followed by metadata and tensor tables.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	if r.Path != "" {
		fmt.Fprintf(&b, "file:          %s\n", r.Path)
	}
	magic := r.Magic
	if !r.MagicValid {
		magic += " (invalid)"
	}
	fmt.Fprintf(&b, "magic:         %s\n", magic)
	fmt.Fprintf(&b, "version:       %d\n", r.Version)
	fmt.Fprintf(&b, "tensors:       %d\n", r.TensorCount)
	fmt.Fprintf(&b, "metadata:      %d\n", r.KVCount)
	fmt.Fprintf(&b, "alignment:     %d\n", r.Alignment)
	fmt.Fprintf(&b, "data offset:   %d\n", r.DataOffset)
	if r.Architecture != "" {
		fmt.Fprintf(&b, "architecture:  %s\n", r.Architecture)
	}
	if r.Parameters > 0 {
		fmt.Fprintf(&b, "parameters:    %s\n", HumanCount(r.Parameters))
	}
	if r.FileType != "" {
		fmt.Fprintf(&b, "file type:     %s\n", r.FileType)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if len(r.Metadata) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.Metadata))
		for _, e := range r.Metadata {
			rows = append(rows, []string{e.Key, e.Type, textValue(e)})
		}
		renderTable(w, []string{"KEY", "TYPE", "VALUE"}, rows)
	}

	if len(r.Tensors) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.Tensors))
		for _, t := range r.Tensors {
			size := "-"
			if t.Bytes > 0 {
				size = units.HumanSize(float64(t.Bytes))
			}
			rows = append(rows, []string{t.Name, t.Type, shape(t.Dims), strconv.FormatUint(t.Offset, 10), size})
		}
		renderTable(w, []string{"NAME", "TYPE", "SHAPE", "OFFSET", "SIZE"}, rows)
	}
	return nil
}

// renderTable draws rows borderless and left aligned.
func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()
}

// RenderTable is renderTable for other packages' listings.
func RenderTable(w io.Writer, header []string, rows [][]string) {
	renderTable(w, header, rows)
}

func shape(dims []uint64) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func textValue(e Entry) string {
	if e.Summarized {
		return fmt.Sprintf("<%d items>", *e.Len)
	}
	return formatAny(e.Value)
}

func formatAny(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case []any:
		n := len(x)
		shown := x
		if n > previewItems {
			shown = x[:previewItems]
		}
		parts := make([]string, len(shown))
		for i, e := range shown {
			parts[i] = formatAny(e)
		}
		s := "[" + strings.Join(parts, ", ")
		if n > previewItems {
			s += fmt.Sprintf(", ... +%d", n-previewItems)
		}
		return s + "]"
	default:
		return fmt.Sprint(x)
	}
}

// HumanCount renders parameter counts the way model cards do: 7.2B, 410M.
func HumanCount(n uint64) string {
	switch {
	case n >= 1e12:
		return strconv.FormatFloat(float64(n)/1e12, 'f', 1, 64) + "T"
	case n >= 1e9:
		return strconv.FormatFloat(float64(n)/1e9, 'f', 1, 64) + "B"
	case n >= 1e6:
		return strconv.FormatFloat(float64(n)/1e6, 'f', 1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(float64(n)/1e3, 'f', 1, 64) + "K"
	default:
		return strconv.FormatUint(n, 10)
	}
}
