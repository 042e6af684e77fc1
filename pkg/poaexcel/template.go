package poaexcel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Colors are the fill colors of the budget sheet, as hex RGB.
type Colors struct {
	Header   string `yaml:"header"`
	Activity string `yaml:"activity"`
	Total    string `yaml:"total"`
	Banner   string `yaml:"banner"`
}

// Template carries the institution-specific text of the generated sheet.
// Letterhead lines and notes may use {year} and {code} placeholders.
type Template struct {
	Letterhead []string `yaml:"letterhead"`
	CodeLabel  string   `yaml:"code_label"`
	Notes      []string `yaml:"notes"`
	Colors     Colors   `yaml:"colors"`
}

// DefaultTemplate returns the letterhead and notes of the research
// directorate's POA programming sheet.
func DefaultTemplate() Template {
	return Template{
		Letterhead: []string{
			"VICERRECTORADO DE INVESTIGACIÓN, INNOVACIÓN Y VINCULACIÓN",
			"DIRECCIÓN DE INVESTIGACIÓN",
			"PROGRAMACIÓN PARA EL POA {year}",
			"PROYECTOS DE INVESTIGACIÓN",
		},
		CodeLabel: "CODIGO DE PROYECTO: {code}",
		Notes: []string{
			"Nota1: La planificación del POA {year} corresponde a la ejecución presupuestaria que se " +
				"llevará a cabo a partir del inicio del proyecto hasta diciembre de 2026",
			"Nota 2: En el caso que se requiera reformas presupuestarias o reformas al POA para la " +
				"inclusión o retiro de ítems, se deberá completar la matriz de reformas y realizar la " +
				"solicitud correspondiente",
			"Nota 3: Considerar que las contrataciones de personal las podrán solicitar una vez que " +
				"ha iniciado el proyecto y estas iniciarán el mes siguiente a la solicitud.",
		},
		Colors: Colors{
			Header:   "D9D9D9",
			Activity: "B4C7E7",
			Total:    "FFFF00",
			Banner:   "FCE4D6",
		},
	}
}

// ParseTemplate reads a YAML template. Missing keys keep their defaults.
func ParseTemplate(data []byte) (Template, error) {
	tmpl := DefaultTemplate()
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return Template{}, fmt.Errorf("parse template: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return Template{}, err
	}
	return tmpl, nil
}

// LoadTemplate reads a YAML template from path.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template %s: %w", path, err)
	}
	return ParseTemplate(data)
}

// Validate checks the template fits the fixed sheet layout.
func (t Template) Validate() error {
	if len(t.Letterhead) != 4 {
		return fmt.Errorf("template letterhead must have 4 lines, got %d", len(t.Letterhead))
	}
	if t.CodeLabel == "" {
		return fmt.Errorf("template code_label is required")
	}
	if len(t.Notes) == 0 {
		return fmt.Errorf("template needs at least one note")
	}
	return nil
}
