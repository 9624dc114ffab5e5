package leaderboarddomain

// ParticipantHeader is the fixed label of the first table column.
const ParticipantHeader = "participant"

// Table is a projected leaderboard: one header row and zero or more body
// rows, all plain text. It is built fresh for every render pass and never
// mutated afterwards.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Project builds a Table from a document. The header row is the fixed
// "participant" label followed by the column labels in document order; each
// body row is the entry's username followed by its values in order.
//
// Rows whose value count differs from the header count are normalized: short
// rows are padded with empty cells, long rows truncated. Every row therefore
// has exactly len(doc.Headers)+1 cells. Callers that want the strict
// behavior instead run Validate against ProjectRaw output.
func Project(doc *Document) Table {
	t := ProjectRaw(doc)
	width := len(t.Headers)
	for i, row := range t.Rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		case len(row) > width:
			t.Rows[i] = row[:width]
		}
	}
	return t
}

// ProjectRaw is Project without row normalization: ragged upstream rows stay
// ragged, matching the legacy renderer.
func ProjectRaw(doc *Document) Table {
	headers := make([]string, 0, len(doc.Headers)+1)
	headers = append(headers, ParticipantHeader)
	for _, h := range doc.Headers {
		headers = append(headers, h.Label)
	}

	rows := make([][]string, 0, len(doc.Scores))
	for _, rec := range doc.Scores {
		row := make([]string, 0, len(headers))
		row = append(row, rec.Entry.Username)
		for _, v := range rec.Entry.Values {
			row = append(row, v.Val)
		}
		rows = append(rows, row)
	}

	return Table{Headers: headers, Rows: rows}
}

// Validate reports the first body row whose cell count does not match the
// header count, or nil if the table is rectangular.
func (t Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return &ValidationError{Row: i, Got: len(row), Want: len(t.Headers)}
		}
	}
	return nil
}
