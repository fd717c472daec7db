package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// On-disk roster layout, shared by the JSON and YAML forms:
//
//	{
//	  "subject_names": ["Jung Hoo Lee", "Matt Chapman"],
//	  "actors": {
//	    "Jung Hoo Lee": ["hits", "walks", "steals"],
//	    "Matt Chapman": ["extra_base_hits"]
//	  }
//	}
type File struct {
	SubjectNames []string            `json:"subject_names" yaml:"subject_names"`
	Actors       map[string][]string `json:"actors" yaml:"actors"`
}

func (f *File) Build() (*Roster, error) {
	r := New()
	r.AddSubjectNames(f.SubjectNames...)
	for name, specs := range f.Actors {
		if err := r.AddActor(name, specs...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile reads a roster from a .json, .yaml or .yml file.
func LoadFile(p string) (*Roster, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	var f File
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parsing roster YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parsing roster JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported roster file type: %s", p)
	}
	return f.Build()
}

// Default is the built-in San Francisco roster, used when no roster file is configured.
func Default() *Roster {
	f := File{
		SubjectNames: []string{
			"Jung Hoo Lee",
			"Matt Chapman",
			"Wilmer Flores",
			"Patrick Bailey",
			"Michael Conforto",
			"Tyler Fitzgerald",
			"Heliot Ramos",
			"Spencer Huff",
		},
		Actors: map[string][]string{
			"Jung Hoo Lee":     {"hits", "walks", "steals"},
			"Matt Chapman":     {"extra_base_hits"},
			"Tyler Fitzgerald": {"hits"},
			"Willy Adames":     {"extra_base_hits"},
		},
	}
	r, err := f.Build()
	if err != nil {
		panic(err)
	}
	return r
}
