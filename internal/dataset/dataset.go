// Package dataset locates the benchmark inputs on disk: sample documents,
// their ground-truth files, and the analyzer field schema.
package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/cu-eval/internal/model"
)

// SupportedExtensions lists the document types submitted for analysis.
var SupportedExtensions = []string{".pdf", ".docx", ".txt", ".png", ".jpg", ".jpeg", ".mp4", ".wav"}

// groundTruthExtensions are tried in order when looking up ground truth.
var groundTruthExtensions = []string{".json", ".yaml", ".yml"}

// Document is one input file to analyze.
type Document struct {
	Path string
	Name string // base name including extension
}

// Base returns the file name without its extension.
func (d Document) Base() string {
	return strings.TrimSuffix(d.Name, filepath.Ext(d.Name))
}

// Discover lists supported documents in dir, sorted by name. A missing
// directory is created and yields no documents.
func Discover(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, eris.Wrapf(mkErr, "dataset: create input dir %s", dir)
		}
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read input dir %s", dir)
	}

	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !supported(e.Name()) {
			continue
		}
		docs = append(docs, Document{
			Path: filepath.Join(dir, e.Name()),
			Name: e.Name(),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// GroundTruthPath returns the ground-truth file for doc in dir, or "" when
// none exists.
func GroundTruthPath(dir string, doc Document) string {
	for _, ext := range groundTruthExtensions {
		p := filepath.Join(dir, doc.Base()+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadGroundTruth reads the ground truth for doc. It returns nil without an
// error when the document has no ground-truth file.
func LoadGroundTruth(dir string, doc Document) (model.GroundTruth, error) {
	p := GroundTruthPath(dir, doc)
	if p == "" {
		return nil, nil
	}

	var truth model.GroundTruth
	if err := decodeFile(p, &truth); err != nil {
		return nil, eris.Wrapf(err, "dataset: ground truth for %s", doc.Name)
	}
	if truth == nil {
		truth = model.GroundTruth{}
	}
	return truth, nil
}

// decodeFile reads a JSON or YAML file into out based on its extension.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return eris.Wrapf(err, "decode yaml %s", path)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(out); err != nil {
			return eris.Wrapf(err, "decode json %s", path)
		}
	}
	return nil
}
