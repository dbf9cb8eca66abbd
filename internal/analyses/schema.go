package analyses

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// careerAnalysisSchema only pins what the API cannot do without. Optional
// sections are repaired by fillDefaults instead of being rejected.
//
//go:embed schema/career_analysis.schema.json
var careerAnalysisSchema string

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(careerAnalysisSchema))
	})
	return compiledSchema, schemaErr
}

type schemaError struct {
	issues []string
}

func (e *schemaError) Error() string {
	return strings.Join(e.issues, "; ")
}

// validateShape requires a currentProfile object and a careerPaths array of
// objects.
func validateShape(doc []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return &schemaError{issues: issues}
}
