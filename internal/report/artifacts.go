package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// maxRuns bounds the run folder search.
const maxRuns = 999

// NextRunFolder creates the first free run_NNN folder under outputDir and
// returns its path and number. Numbers start at 1.
func NextRunFolder(outputDir string) (string, int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", 0, eris.Wrapf(err, "report: create output dir %s", outputDir)
	}

	for n := 1; n <= maxRuns; n++ {
		dir := filepath.Join(outputDir, RunLabel(n))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, n, nil
		}
		if !os.IsExist(err) {
			return "", 0, eris.Wrapf(err, "report: create run folder %s", dir)
		}
	}
	return "", 0, eris.Errorf("report: no free run folder under %s", outputDir)
}

// SaveRaw writes the unmodified analysis result for document into dir.
func SaveRaw(dir, document string, raw []byte) (string, error) {
	path := filepath.Join(dir, RawFileName(document))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", eris.Wrapf(err, "report: save raw result %s", path)
	}
	return path, nil
}

type artifact struct {
	name   string
	render func(io.Writer, *Report) error
}

// Write renders every artifact of r into dir and returns the written paths.
// The XLSX workbook is written only when r.Spreadsheet is set.
func Write(dir string, r *Report) ([]string, error) {
	return writeArtifacts(dir, r, artifact{JSONFile, RenderJSON})
}

// Rerender rewrites the Markdown (and optional XLSX) artifacts of a report
// loaded from dir. The JSON report is left untouched.
func Rerender(dir string, r *Report) ([]string, error) {
	return writeArtifacts(dir, r)
}

func writeArtifacts(dir string, r *Report, leading ...artifact) ([]string, error) {
	artifacts := append(leading, artifact{MarkdownFile, RenderMarkdown})
	if r.Spreadsheet {
		artifacts = append(artifacts, artifact{XLSXFile, RenderXLSX})
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		var buf bytes.Buffer
		if err := a.render(&buf, r); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, a.name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, eris.Wrapf(err, "report: write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
