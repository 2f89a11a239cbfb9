package domain

// Settings is the user configuration shared by every view.
// Only the fields in AnalysisSettings change what the service computes.
type Settings struct {
	Model         Model `json:"model"`
	Rewrite       bool  `json:"rewrite"`
	Sequentialise bool  `json:"sequentialise"`
	AutoRefresh   bool  `json:"auto_refresh"`
	Colour        bool  `json:"colour"`
	ColourCursor  bool  `json:"colour_cursor"`
	ShortShare    bool  `json:"short_share"`
}

// AnalysisSettings is the subset of Settings that invalidates cached results.
type AnalysisSettings struct {
	Model         Model `json:"model" mapstructure:"model"`
	Rewrite       bool  `json:"rewrite" mapstructure:"rewrite"`
	Sequentialise bool  `json:"sequentialise" mapstructure:"sequentialise"`
}

// DefaultSettings mirrors the settings a fresh UI starts with.
func DefaultSettings() Settings {
	return Settings{
		Model:         ModelConcrete,
		Rewrite:       false,
		Sequentialise: true,
		AutoRefresh:   true,
		Colour:        true,
		ColourCursor:  true,
		ShortShare:    false,
	}
}

// Analysis extracts the analysis-affecting fields.
func (s Settings) Analysis() AnalysisSettings {
	return AnalysisSettings{
		Model:         s.Model,
		Rewrite:       s.Rewrite,
		Sequentialise: s.Sequentialise,
	}
}

// WithAnalysis returns a copy of s with the analysis fields replaced by a.
func (s Settings) WithAnalysis(a AnalysisSettings) Settings {
	s.Model = a.Model
	s.Rewrite = a.Rewrite
	s.Sequentialise = a.Sequentialise
	return s
}

// AnalysisKey is the exact tuple an elaboration result was computed from.
type AnalysisKey struct {
	Source   string
	Settings AnalysisSettings
}
