package branding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Decode parses a JSON style document into overrides.
func Decode(data []byte) (*Overrides, error) {
	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode style config: %w", err)
	}
	return &o, nil
}

// LoadFile reads overrides from a JSON or YAML file. YAML is chosen by
// the .yaml/.yml extension.
func LoadFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style config: %w", err)
	}
	if isYAML(path) {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("convert yaml style config: %w", err)
		}
	}
	return Decode(data)
}

// WriteSample writes the sample configuration to path, as YAML when the
// extension asks for it and indented JSON otherwise.
func WriteSample(path string) error {
	data, err := SampleJSON()
	if err != nil {
		return err
	}
	if isYAML(path) {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("convert sample to yaml: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleJSON returns the sample configuration as indented JSON.
func SampleJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Sample(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sample config: %w", err)
	}
	return append(data, '\n'), nil
}

// Sample is a complete example configuration intended as a starting
// point for customization.
func Sample() *Overrides {
	str := func(s string) *string { return &s }
	num := func(f float64) *float64 { return &f }
	yes := func(b bool) *bool { return &b }
	color := func(hex string) json.RawMessage { return json.RawMessage(`"` + hex + `"`) }
	heading := func(size, before, after float64) *HeadingOverrides {
		return &HeadingOverrides{
			FontName:    str("Calibri"),
			FontSize:    num(size),
			Color:       color("#2F5496"),
			Bold:        yes(true),
			SpaceBefore: num(before),
			SpaceAfter:  num(after),
		}
	}
	return &Overrides{
		Title:   str("My Document"),
		Author:  str("Author Name"),
		Company: str("Company Name"),
		Page: &PageOverrides{
			Width:        num(8.5),
			Height:       num(11),
			MarginTop:    num(1),
			MarginBottom: num(1),
			MarginLeft:   num(1),
			MarginRight:  num(1),
		},
		BodyFont: &FontOverrides{Name: str("Calibri"), Size: num(11), Color: color("#000000")},
		Heading1: heading(24, 18, 12),
		Heading2: heading(20, 16, 10),
		Heading3: heading(16, 14, 8),
		CodeFont: &FontOverrides{Name: str("Courier New"), Size: num(10)},

		CodeBackgroundColor: color("#F5F5F5"),
		LinkColor:           color("#0563C1"),
		LinkUnderline:       yes(true),
		Header: &HeaderFooterOverrides{
			LeftText:  str("Company Name"),
			Text:      str("Document Title"),
			RightText: str(""),
			FontName:  str("Calibri"),
			FontSize:  num(9),
			Color:     color("#808080"),
		},
		Footer: &HeaderFooterOverrides{
			LeftText:           str("Confidential"),
			Text:               str(""),
			RightText:          str(""),
			FontName:           str("Calibri"),
			FontSize:           num(9),
			Color:              color("#808080"),
			IncludePageNumber:  yes(true),
			PageNumberPosition: str("right"),
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
