package contentunderstanding

import (
	"fmt"
	"strings"
)

// BaseAnalyzerID is the prebuilt analyzer custom analyzers extend.
const BaseAnalyzerID = "prebuilt-documentAnalyzer"

// Processing locations.
const (
	LocationGlobal    = "global"
	LocationGeography = "geography"
)

// AnalyzerDefinition is the body of a create-analyzer request.
type AnalyzerDefinition struct {
	Description        string         `json:"description"`
	BaseAnalyzerID     string         `json:"baseAnalyzerId"`
	Mode               string         `json:"mode"`
	ProcessingLocation string         `json:"processingLocation"`
	Config             AnalyzerConfig `json:"config"`
	FieldSchema        map[string]any `json:"fieldSchema"`
}

// AnalyzerConfig holds the analyzer's processing options.
type AnalyzerConfig struct {
	ReturnDetails bool `json:"returnDetails"`
}

// NewAnalyzerDefinition builds the definition for a field schema loaded from
// schemaFile. Pro mode processes globally; standard stays in the resource's
// geography.
func NewAnalyzerDefinition(schemaFile, mode string, fieldSchema map[string]any) AnalyzerDefinition {
	location := LocationGeography
	if strings.EqualFold(mode, "pro") {
		location = LocationGlobal
	}
	return AnalyzerDefinition{
		Description:        fmt.Sprintf("Auto-created analyzer using field schema from %s", schemaFile),
		BaseAnalyzerID:     BaseAnalyzerID,
		Mode:               mode,
		ProcessingLocation: location,
		Config:             AnalyzerConfig{ReturnDetails: true},
		FieldSchema:        fieldSchema,
	}
}
