package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ystepanoff/acomm/param"
)

type yamlRecord struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

type yamlDoc struct {
	Parameters []yamlRecord `yaml:"parameters"`
}

// YAMLFile stores records as a YAML document. A missing file loads as
// empty.
type YAMLFile struct {
	Path string
}

var _ param.Store = YAMLFile{}

func (y YAMLFile) Save(records []param.Record) error {
	doc := yamlDoc{Parameters: make([]yamlRecord, 0, len(records))}
	for _, rec := range records {
		v, err := param.FromBits(rec.Type, rec.Bits)
		if err != nil {
			return fmt.Errorf("encode %s: %w", rec.ID, err)
		}
		doc.Parameters = append(doc.Parameters, yamlRecord{
			ID:    rec.ID.String(),
			Name:  rec.Name,
			Type:  rec.Type.String(),
			Value: v.String(),
		})
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(y.Path), ".params-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), y.Path)
}

func (y YAMLFile) Load() ([]param.Record, error) {
	data, err := os.ReadFile(y.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", y.Path, err)
	}

	records := make([]param.Record, 0, len(doc.Parameters))
	for _, yr := range doc.Parameters {
		rec, err := yr.record()
		if err != nil {
			log.Printf("[Storage] Skipping %q in %s: %v\r\n", yr.ID, y.Path, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (yr yamlRecord) record() (param.Record, error) {
	id, err := param.ParseID(yr.ID)
	if err != nil {
		return param.Record{}, err
	}
	t, err := param.ParseType(yr.Type)
	if err != nil {
		return param.Record{}, err
	}
	v, err := param.ParseValue(t, yr.Value)
	if err != nil {
		return param.Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return param.Record{ID: id, Name: yr.Name, Type: t, Bits: v.Bits()}, nil
}
