package export

import (
	"bytes"
	"encoding/csv"
)

// CSV writes the header row followed by one record per row. Title and
// subtitle are not part of the output.
type CSV struct{}

func (CSV) ContentType() string { return "text/csv" }

func (CSV) Extension() string { return "csv" }

func (CSV) Render(data Dataset) ([]byte, error) {
	if err := data.check(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(data.Headers())
	_ = w.WriteAll(data.Rows)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
