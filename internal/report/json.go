package report

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/segmentio/encoding/json"
)

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal json")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write json")
	}
	return nil
}

// LoadJSON reads a report previously written by RenderJSON.
func LoadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "report: decode %s", path)
	}
	return &r, nil
}
