package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/talent-pipeline/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var defaultStages []byte

// stageFile is the YAML layout of a stage template.
type stageFile struct {
	Stages []types.StageTemplate `yaml:"stages" validate:"required,min=1,dive"`
}

// DefaultStageTemplate returns the built-in stage list created with every recruitment.
func DefaultStageTemplate() []types.StageTemplate {
	stages, err := parseStageTemplate(defaultStages)
	if err != nil {
		panic(fmt.Sprintf("embedded stage template is invalid: %v", err))
	}
	return stages
}

// LoadStageTemplate reads a stage template from a YAML file.
// An empty path returns the built-in default.
func LoadStageTemplate(path string) ([]types.StageTemplate, error) {
	if path == "" {
		return DefaultStageTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage template %s: %w", path, err)
	}
	return parseStageTemplate(data)
}

func parseStageTemplate(data []byte) ([]types.StageTemplate, error) {
	var f stageFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse stage template YAML: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid stage template: %w", err)
	}
	for _, st := range f.Stages {
		if !st.Type.Valid() {
			return nil, fmt.Errorf("invalid stage template: unknown stage type %q for %q", st.Type, st.Name)
		}
	}
	return f.Stages, nil
}
