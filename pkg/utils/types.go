package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

/**************************************************************************************************
** TIncrement is one slot of a range's increment pattern. It describes how the time of the next
** image in the range is derived from the times already computed for that range.
**
** A slot is either:
** - Direct: add Minutes to the immediately preceding computed time. Serialized as a bare number.
** - Relative: add Add minutes to the computed time at index RelativeTo (index 0 is the range
**   start time). Serialized as {"relativeTo": N, "add": M}.
**************************************************************************************************/
type TIncrement struct {
	Relative   bool `json:"-" yaml:"-"`
	Minutes    int  `json:"-" yaml:"-"` // Direct increment, ignored when Relative is set
	RelativeTo int  `json:"-" yaml:"-"` // Index into the computed time list, Relative only
	Add        int  `json:"-" yaml:"-"` // Minutes added to the referenced time, Relative only
}

// relativeIncrement is the wire shape of a relative slot. Pointers let us tell a missing key
// from an explicit zero.
type relativeIncrement struct {
	RelativeTo *int `json:"relativeTo" yaml:"relativeTo"`
	Add        *int `json:"add" yaml:"add"`
}

/**************************************************************************************************
** Direct builds a direct increment slot.
**************************************************************************************************/
func Direct(minutes int) TIncrement {
	return TIncrement{Minutes: minutes}
}

/**************************************************************************************************
** RelativeTo builds a relative increment slot that adds `add` minutes to the computed time at
** index `index`.
**************************************************************************************************/
func RelativeTo(index, add int) TIncrement {
	return TIncrement{Relative: true, RelativeTo: index, Add: add}
}

// String renders the slot the way it is written in job files.
func (inc TIncrement) String() string {
	if inc.Relative {
		return fmt.Sprintf("{relativeTo:%d add:%d}", inc.RelativeTo, inc.Add)
	}
	return fmt.Sprintf("%d", inc.Minutes)
}

/**************************************************************************************************
** MarshalJSON writes a direct slot as a number and a relative slot as an object.
**************************************************************************************************/
func (inc TIncrement) MarshalJSON() ([]byte, error) {
	if inc.Relative {
		return json.Marshal(map[string]int{"relativeTo": inc.RelativeTo, "add": inc.Add})
	}
	return json.Marshal(inc.Minutes)
}

/**************************************************************************************************
** UnmarshalJSON accepts either a bare integer or a {relativeTo, add} object. Anything else is an
** invalid pattern entry.
**************************************************************************************************/
func (inc *TIncrement) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("invalid pattern entry: null")
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var rel relativeIncrement
		if err := json.Unmarshal(trimmed, &rel); err != nil {
			return fmt.Errorf("invalid relative reference format: %w", err)
		}
		return inc.setRelative(rel)
	}

	var minutes int
	if err := json.Unmarshal(trimmed, &minutes); err != nil {
		return fmt.Errorf("invalid pattern entry %s: %w", string(trimmed), err)
	}
	*inc = Direct(minutes)
	return nil
}

/**************************************************************************************************
** MarshalYAML mirrors MarshalJSON so job files round-trip in either format.
**************************************************************************************************/
func (inc TIncrement) MarshalYAML() (interface{}, error) {
	if inc.Relative {
		return map[string]int{"relativeTo": inc.RelativeTo, "add": inc.Add}, nil
	}
	return inc.Minutes, nil
}

/**************************************************************************************************
** UnmarshalYAML accepts a scalar integer or a mapping with relativeTo and add keys.
**************************************************************************************************/
func (inc *TIncrement) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var minutes int
		if err := value.Decode(&minutes); err != nil {
			return fmt.Errorf("invalid pattern entry %q: %w", value.Value, err)
		}
		*inc = Direct(minutes)
		return nil
	case yaml.MappingNode:
		var rel relativeIncrement
		if err := value.Decode(&rel); err != nil {
			return fmt.Errorf("invalid relative reference format: %w", err)
		}
		return inc.setRelative(rel)
	default:
		return fmt.Errorf("invalid pattern entry at line %d", value.Line)
	}
}

func (inc *TIncrement) setRelative(rel relativeIncrement) error {
	if rel.RelativeTo == nil || rel.Add == nil {
		return fmt.Errorf("invalid relative reference format: relativeTo and add are both required")
	}
	*inc = RelativeTo(*rel.RelativeTo, *rel.Add)
	return nil
}

/**************************************************************************************************
** TTimeRange is an ordered block of consecutively numbered images sharing one start time and one
** increment pattern. The pattern holds one slot per image after the first.
**************************************************************************************************/
type TTimeRange struct {
	ID               string       `json:"id,omitempty" yaml:"id,omitempty"`         // Optional identifier
	StartTime        string       `json:"startTime" yaml:"startTime"`               // "HH:MM", 24h clock
	IncrementPattern []TIncrement `json:"incrementPattern" yaml:"incrementPattern"` // len == PhotoCount-1
	PhotoCount       int          `json:"photoCount" yaml:"photoCount"`             // Images covered by this range
}

/**************************************************************************************************
** TWatermarkConfig holds everything needed to compute the watermark text of a batch: the capture
** date, the address block and the ordered time ranges.
**************************************************************************************************/
type TWatermarkConfig struct {
	Date       string       `json:"date" yaml:"date"`     // "2025-01-15"
	Street     string       `json:"street" yaml:"street"` // "123 N. MAIN ST."
	City       string       `json:"city" yaml:"city"`     // "CAMBRIDGE"
	State      string       `json:"state" yaml:"state"`   // "MA"
	Zip        string       `json:"zip" yaml:"zip"`       // "02138"
	TimeRanges []TTimeRange `json:"timeRanges" yaml:"timeRanges"`
}

/**************************************************************************************************
** TAdvancedOptions controls where and how the watermark is drawn.
**************************************************************************************************/
type TAdvancedOptions struct {
	Position    string `json:"position" yaml:"position"`       // top-left, top-right, bottom-left, bottom-right
	FontSize    string `json:"fontSize" yaml:"fontSize"`       // small, medium, large
	TextColor   string `json:"textColor" yaml:"textColor"`     // white, black or #rrggbb
	Bold        bool   `json:"bold" yaml:"bold"`               // Use the bold face
	HasBorder   bool   `json:"hasBorder" yaml:"hasBorder"`     // Draw an outline behind the text
	BorderWidth string `json:"borderWidth" yaml:"borderWidth"` // thin, medium, thick
	BorderColor string `json:"borderColor" yaml:"borderColor"` // white, black or #rrggbb
}

/**************************************************************************************************
** TCropRect is a crop rectangle expressed in fractions (0..1) of the rotated image.
**************************************************************************************************/
type TCropRect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

/**************************************************************************************************
** TImageAdjustment is the per-image geometric adjustment applied before the watermark is drawn.
**************************************************************************************************/
type TImageAdjustment struct {
	Rotation    int        `json:"rotation" yaml:"rotation"`             // 0, 90, 180 or 270
	AspectRatio string     `json:"aspectRatio" yaml:"aspectRatio"`       // 4:3, 3:4 or 1:1
	Crop        *TCropRect `json:"crop,omitempty" yaml:"crop,omitempty"` // nil means default centered crop
}

/**************************************************************************************************
** TProgress is emitted by the batch processor once per image.
**************************************************************************************************/
type TProgress struct {
	Current     int    `json:"current"`
	Total       int    `json:"total"`
	CurrentFile string `json:"currentFile"`
}

/**************************************************************************************************
** TJob is the full description of a processing session as read from a job file or received by
** the HTTP server.
**
** Adjustments is matched to images by position. Missing entries mean no adjustment.
**************************************************************************************************/
type TJob struct {
	Config      TWatermarkConfig   `json:"config" yaml:"config"`
	Options     TAdvancedOptions   `json:"options" yaml:"options"`
	Adjustments []TImageAdjustment `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
	Images      []string           `json:"images,omitempty" yaml:"images,omitempty"`           // Paths, upload order
	ArchiveName string             `json:"archiveName,omitempty" yaml:"archiveName,omitempty"` // Defaults to DefaultArchiveName
	KeepNames   bool               `json:"keepNames,omitempty" yaml:"keepNames,omitempty"`     // Name entries after the source files
}

/**************************************************************************************************
** TPreviewEntry is one row of a timestamp preview: which range and position an image falls into
** and the label it will receive.
**************************************************************************************************/
type TPreviewEntry struct {
	Index    int    `json:"index"`
	File     string `json:"file,omitempty"`
	Range    string `json:"range"`
	Position int    `json:"position"`
	Label    string `json:"label"`
	Assigned bool   `json:"assigned"`
}

/**************************************************************************************************
** HTTP payloads
**************************************************************************************************/

// TPreviewRequest asks for the labels of a batch without processing any image.
type TPreviewRequest struct {
	Config TWatermarkConfig `json:"config"`
	Total  int              `json:"total"`           // Number of images, defaults to the ranges' total
	Files  []string         `json:"files,omitempty"` // Optional filenames in upload order
}

// TPreviewResponse lists one entry per image.
type TPreviewResponse struct {
	Entries []TPreviewEntry `json:"entries"`
}

// THealthResponse is returned by the health endpoint.
type THealthResponse struct {
	Status string `json:"status"`
}

// TErrorResponse carries a single human-readable message.
type TErrorResponse struct {
	Error string `json:"error"`
}
