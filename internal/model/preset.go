package model

// Preset is a named bundle of default edit parameters.
type Preset struct {
	Type            PresetType      `json:"type"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	DefaultDuration float64         `json:"defaultDuration"`
	MaxClips        int             `json:"maxClips"`
	TransitionStyle string          `json:"transitionStyle"`
	AspectRatio     string          `json:"aspectRatio"`
	Pacing          string          `json:"pacing"`
	Effects         map[string]bool `json:"effects"`
	SearchKeywords  []string        `json:"searchKeywords"`
}

// DefaultTheme is used when the request carries no custom theme.
const DefaultTheme = "default"

var presets = map[PresetType]Preset{
	PresetHighlights: {
		Type:            PresetHighlights,
		Name:            "Highlights",
		Description:     "Best moments compilation with smooth transitions",
		DefaultDuration: 60,
		MaxClips:        8,
		TransitionStyle: "fade",
		AspectRatio:     "16:9",
		Pacing:          "medium",
		Effects: map[string]bool{
			"intro_fade":            true,
			"outro_fade":            true,
			"auto_color_correction": true,
		},
		SearchKeywords: []string{"best", "important", "key moment", "highlight"},
	},
	PresetReel: {
		Type:            PresetReel,
		Name:            "Social Media Reel",
		Description:     "Fast-paced, engaging content for social platforms",
		DefaultDuration: 30,
		MaxClips:        6,
		TransitionStyle: "quick_cut",
		AspectRatio:     "9:16",
		Pacing:          "fast",
		Effects: map[string]bool{
			"auto_captions":  true,
			"trending_music": true,
			"dynamic_zoom":   true,
			"text_overlays":  true,
		},
		SearchKeywords: []string{"dynamic", "engaging", "action", "movement"},
	},
	PresetCustom: {
		Type:            PresetCustom,
		Name:            "Custom",
		Description:     "Fully customizable video with user specifications",
		DefaultDuration: 45,
		MaxClips:        10,
		TransitionStyle: "smooth",
		AspectRatio:     "16:9",
		Pacing:          "user_defined",
		Effects:         map[string]bool{"flexible": true},
		SearchKeywords:  []string{},
	},
}

// LookupPreset returns the preset for t, falling back to custom.
// The returned value is a copy.
func LookupPreset(t PresetType) Preset {
	p, ok := presets[t]
	if !ok {
		p = presets[PresetCustom]
	}
	return p.clone()
}

// IsKnownPreset reports whether t names a defined preset.
func IsKnownPreset(t PresetType) bool {
	_, ok := presets[t]
	return ok
}

// AllPresets lists the presets in a stable order.
func AllPresets() []Preset {
	out := make([]Preset, 0, len(ValidPresetTypes))
	for _, t := range ValidPresetTypes {
		out = append(out, presets[t].clone())
	}
	return out
}

func (p Preset) clone() Preset {
	out := p
	out.SearchKeywords = cloneStrings(p.SearchKeywords)
	out.Effects = make(map[string]bool, len(p.Effects))
	for k, v := range p.Effects {
		out.Effects[k] = v
	}
	return out
}

// BuildAssemblyConfig fills absent custom settings from the preset.
func BuildAssemblyConfig(t PresetType, custom CustomSettings) AssemblyConfig {
	p := LookupPreset(t)
	cfg := AssemblyConfig{
		Preset:                t,
		TargetDurationSeconds: p.DefaultDuration,
		Theme:                 DefaultTheme,
		TransitionStyle:       p.TransitionStyle,
		AspectRatio:           p.AspectRatio,
		MaxClips:              p.MaxClips,
	}
	if custom.Duration != nil && *custom.Duration > 0 {
		cfg.TargetDurationSeconds = *custom.Duration
	}
	if custom.Theme != nil && *custom.Theme != "" {
		cfg.Theme = *custom.Theme
	}
	return cfg
}
