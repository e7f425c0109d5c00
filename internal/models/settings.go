package models

import "time"

// DeveloperSettings is the process-wide safety configuration. Compiled-in
// defaults are merged under a persisted override record on every read;
// merge is shallow key-overwrite, last write wins.
type DeveloperSettings struct {
	AutoPostEnabled bool `json:"auto_post_enabled"`
	VisualDebug     bool `json:"visual_debug"`
	DailyPostLimit  int  `json:"daily_post_limit"`
	RateLimitPerMin int  `json:"rate_limit_per_min"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SettingsPatch carries a partial update; nil fields are left untouched
type SettingsPatch struct {
	AutoPostEnabled *bool `json:"auto_post_enabled,omitempty"`
	VisualDebug     *bool `json:"visual_debug,omitempty"`
	DailyPostLimit  *int  `json:"daily_post_limit,omitempty"`
	RateLimitPerMin *int  `json:"rate_limit_per_min,omitempty"`
}

// DefaultSettings returns the compiled-in defaults
func DefaultSettings() DeveloperSettings {
	return DeveloperSettings{
		AutoPostEnabled: true,
		VisualDebug:     false,
		DailyPostLimit:  10,
		RateLimitPerMin: 2,
	}
}

// Apply merges the patch onto the settings. Applying the same patch twice
// yields the same result as applying it once.
func (s DeveloperSettings) Apply(p SettingsPatch) DeveloperSettings {
	if p.AutoPostEnabled != nil {
		s.AutoPostEnabled = *p.AutoPostEnabled
	}
	if p.VisualDebug != nil {
		s.VisualDebug = *p.VisualDebug
	}
	if p.DailyPostLimit != nil {
		s.DailyPostLimit = *p.DailyPostLimit
	}
	if p.RateLimitPerMin != nil {
		s.RateLimitPerMin = *p.RateLimitPerMin
	}
	return s
}
