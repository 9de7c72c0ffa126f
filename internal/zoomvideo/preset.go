package zoomvideo

import "strconv"

// Output format names accepted in Request.OutputFormat.
const (
	FormatSquare    = "square"
	FormatReels     = "reels"
	FormatLandscape = "landscape"
	FormatAuto      = "auto"

	DefaultFormat = FormatReels
)

// Preset is a fixed intermediate/output resolution pair. The source is first
// cover-fitted to the intermediate size, then zoompan renders frames at the
// output size.
type Preset struct {
	Name               string `json:"name"`
	IntermediateWidth  int    `json:"intermediate_width"`
	IntermediateHeight int    `json:"intermediate_height"`
	OutputWidth        int    `json:"output_width"`
	OutputHeight       int    `json:"output_height"`
}

var (
	presetSquare    = Preset{Name: FormatSquare, IntermediateWidth: 2880, IntermediateHeight: 2880, OutputWidth: 720, OutputHeight: 720}
	presetReels     = Preset{Name: FormatReels, IntermediateWidth: 4320, IntermediateHeight: 7680, OutputWidth: 1080, OutputHeight: 1920}
	presetLandscape = Preset{Name: FormatLandscape, IntermediateWidth: 7680, IntermediateHeight: 4320, OutputWidth: 1920, OutputHeight: 1080}
)

var presetTable = map[string]Preset{
	FormatSquare:    presetSquare,
	FormatReels:     presetReels,
	FormatLandscape: presetLandscape,
}

// Presets returns the preset table in a stable order.
func Presets() []Preset {
	return []Preset{presetSquare, presetReels, presetLandscape}
}

// LookupPreset returns the preset registered under name. Names are case
// sensitive.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presetTable[name]
	return p, ok
}

// ResolvePreset picks the preset for format. "auto" chooses landscape for
// wider-than-tall images and reels otherwise. Unknown names, typos included,
// fall back to reels and never fail.
func ResolvePreset(format string, dims ImageDimensions) Preset {
	if format == FormatAuto {
		if dims.Width > dims.Height {
			return presetLandscape
		}
		return presetReels
	}
	if p, ok := presetTable[format]; ok {
		return p
	}
	return presetTable[DefaultFormat]
}

// Intermediate renders the scale/crop size as "W:H".
func (p Preset) Intermediate() string {
	return strconv.Itoa(p.IntermediateWidth) + ":" + strconv.Itoa(p.IntermediateHeight)
}

// Output renders the zoompan frame size as "WxH".
func (p Preset) Output() string {
	return strconv.Itoa(p.OutputWidth) + "x" + strconv.Itoa(p.OutputHeight)
}
