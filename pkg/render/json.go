package render

import (
	"encoding/json"
	"io"

	"github.com/leapstack-labs/evaltable/pkg/batch"
	"github.com/leapstack-labs/evaltable/pkg/core"
)

type jsonOutput struct {
	Type     string        `json:"type"`
	Rows     int           `json:"rows"`
	Input    *jsonInput    `json:"input,omitempty"`
	Programs []jsonProgram `json:"programs"`
}

type jsonInput struct {
	Labels []string   `json:"labels"`
	Rows   [][]string `json:"rows"`
}

type jsonProgram struct {
	Program string   `json:"program"`
	Values  []any    `json:"values"`
	Status  []string `json:"status"`
	Errors  []string `json:"errors,omitempty"`
}

// renderJSON writes one entry per program. Failed and NaN cells are null,
// with the reason in status and errors.
func renderJSON(w io.Writer, out *batch.Output, g *grid, _ Options) error {
	doc := jsonOutput{
		Type:     out.Type.String(),
		Rows:     out.Rows,
		Programs: make([]jsonProgram, len(out.Columns)),
	}

	if g.inputs > 0 {
		doc.Input = &jsonInput{Labels: g.headers[:g.inputs], Rows: make([][]string, len(g.rows))}
		for r, row := range g.rows {
			vals := make([]string, g.inputs)
			for c := 0; c < g.inputs; c++ {
				vals[c] = row[c].text
			}
			doc.Input.Rows[r] = vals
		}
	}

	for p := range out.Columns {
		jp := jsonProgram{
			Program: g.headers[g.inputs+p],
			Values:  make([]any, out.Rows),
			Status:  make([]string, out.Rows),
		}
		var errs []string
		for r := 0; r < out.Rows; r++ {
			cell := out.Cell(p, r)
			jp.Status[r] = cell.Status.String()
			if cell.Status == batch.OK {
				jp.Values[r] = jsonValue(cell.Value)
			}
			if cell.Err != nil {
				if errs == nil {
					errs = make([]string, out.Rows)
				}
				errs[r] = cell.Err.Error()
			}
		}
		jp.Errors = errs
		doc.Programs[p] = jp
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func jsonValue(v core.Value) any {
	switch v.Type() {
	case core.Boolean:
		return v.AsBool()
	case core.Continuous:
		return v.AsFloat()
	default:
		return v.String()
	}
}
