package block

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionFile формат YAML-файла с переопределениями блоков:
//
//	blocks:
//	  - name: Iron
//	    representation: prefab/iron
//	    drop_count: 2
type definitionFile struct {
	Blocks []definitionEntry `yaml:"blocks"`
}

type definitionEntry struct {
	Name           string  `yaml:"name"`
	Representation *string `yaml:"representation"`
	DropCount      *int    `yaml:"drop_count"`
	MaxHP          *int    `yaml:"max_hp"`
	Mineable       *bool   `yaml:"mineable"`
	Fluid          *bool   `yaml:"fluid"`
}

// LoadDefinitions применяет переопределения из YAML-файла к реестру.
// Незаданные поля сохраняют текущие значения.
func (r *Registry) LoadDefinitions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.ApplyYAML(data)
}

// ApplyYAML применяет переопределения из YAML-документа
func (r *Registry) ApplyYAML(data []byte) error {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("разбор описаний блоков: %w", err)
	}

	for _, e := range file.Blocks {
		t, err := ParseBlockType(e.Name)
		if err != nil {
			return err
		}
		if t == None {
			return fmt.Errorf("тип None нельзя переопределить")
		}

		def, exists := r.Get(t)
		if !exists {
			def = Definition{Type: t, Name: t.String()}
		}
		if e.Representation != nil {
			def.Representation = *e.Representation
		}
		if e.DropCount != nil {
			def.DropCount = *e.DropCount
		}
		if e.MaxHP != nil {
			def.MaxHP = *e.MaxHP
		}
		if e.Mineable != nil {
			def.Mineable = *e.Mineable
		}
		if e.Fluid != nil {
			def.Fluid = *e.Fluid
		}
		r.Register(def)
	}
	return nil
}
