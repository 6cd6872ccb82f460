// Package motion defines the on-disk motion document: named scalar fields
// sampled once per frame, with optional keyframe markers and joint limits.
// The document is the hand-off format between persistence and the frame
// store; the editing engine never touches it directly.
package motion

import (
	"encoding/json"
	"math"
	"os"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
)

// Limit bounds a joint field's values. Fields without a limit are unclamped.
type Limit struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Clamp forces v into [Lower, Upper].
func (l Limit) Clamp(v float64) float64 {
	if v < l.Lower {
		return l.Lower
	}
	if v > l.Upper {
		return l.Upper
	}
	return v
}

// Field is one named time series of length FrameCount.
type Field struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	// Keys lists the keyframed frame indices, ascending.
	Keys  []int  `json:"keys,omitempty"`
	Limit *Limit `json:"limit,omitempty"`
}

// DisplayName renders a snake_case field name as a human label,
// e.g. "left_shoulder_pitch" → "Left Shoulder Pitch".
func (f *Field) DisplayName() string {
	words := strings.Fields(strcase.ToDelimited(f.Name, ' '))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Document is a complete motion clip.
type Document struct {
	Name       string  `json:"name"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frameCount"`
	Fields     []Field `json:"fields"`
}

// Validate normalizes the document in place: pads or truncates each field's
// values to FrameCount, drops out-of-range or duplicate key indices, and
// zeroes non-finite samples. It never fails for fixable data; it returns an
// error only for structural problems.
func (d *Document) Validate() error {
	if d.FrameCount <= 0 {
		return errors.New("motion: document has no frames")
	}
	if d.FPS <= 0 {
		d.FPS = 30
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" {
			return errors.Errorf("motion: field %d has no name", i)
		}
		if seen[f.Name] {
			return errors.Errorf("motion: duplicate field %q", f.Name)
		}
		seen[f.Name] = true

		switch {
		case len(f.Values) < d.FrameCount:
			pad := make([]float64, d.FrameCount-len(f.Values))
			f.Values = append(f.Values, pad...)
		case len(f.Values) > d.FrameCount:
			f.Values = f.Values[:d.FrameCount]
		}
		for j, v := range f.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				f.Values[j] = 0
			}
		}

		keys := f.Keys[:0]
		last := -1
		for _, k := range f.Keys {
			if k < 0 || k >= d.FrameCount || k <= last {
				continue
			}
			keys = append(keys, k)
			last = k
		}
		f.Keys = keys
	}
	return nil
}

// Load reads and validates a motion document from a JSON file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading motion file %s", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing motion file %s", path)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save writes the document as indented JSON.
func Save(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding motion document")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing motion file %s", path)
	}
	return nil
}
