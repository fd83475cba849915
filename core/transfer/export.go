package transfer

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/response"
)

// ExportColumns are the metadata columns leading every export row.
var ExportColumns = []string{"id", "user_id", "status", "submission_timestamp", "last_modified_timestamp"}

// ExportResponses writes the responses of form f as CSV: a header row, then one row per response.
// Every answerable field of f gets a column (titled by its label, or its id when unlabeled),
// whether or not a response answers it; missing values are empty cells.
func ExportResponses(w io.Writer, f form.Form, rs []response.Response) error {
	fields := form.Answerable(f.Fields)

	header := make([]string, 0, len(ExportColumns)+len(fields))
	header = append(header, ExportColumns...)
	for _, fld := range fields {
		title := fld.Label
		if title == "" {
			title = fld.ID
		}
		header = append(header, title)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, r := range rs {
		row := make([]string, 0, len(header))
		row = append(row,
			r.ID,
			r.UserID,
			string(r.Status),
			formatTime(r.SubmissionTimestamp),
			formatTime(&r.LastModifiedTimestamp),
		)
		for _, fld := range fields {
			var cell string
			if v, ok := r.Values[fld.ID]; ok {
				cell = v.String()
			}
			row = append(row, cell)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing response %s", r.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
