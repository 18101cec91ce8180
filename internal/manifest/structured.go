package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the structured manifest layout:
//
//	samples:
//	  - name: s1
//	    read1: reads/s1_R1.fq.gz
//	    read2: reads/s1_R2.fq.gz
type document struct {
	Samples []Sample `json:"samples" yaml:"samples"`
}

// decodeStructured parses a YAML or JSON manifest. ext is ".yaml" or ".json".
func decodeStructured(src io.Reader, ext string) ([]candidate, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	var doc document
	if ext == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse manifest json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse manifest yaml: %w", err)
		}
	}

	out := make([]candidate, len(doc.Samples))
	for i, s := range doc.Samples {
		out[i] = candidate{
			Sample: Sample{
				Name:  strings.TrimSpace(s.Name),
				Read1: strings.TrimSpace(s.Read1),
				Read2: strings.TrimSpace(s.Read2),
			},
			where: fmt.Sprintf("entry %d", i+1),
		}
	}
	return out, nil
}
