package models

import "time"

// SessionCookie mirrors the browser cookie fields needed to restore an
// authenticated context
type SessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"` // Unix seconds; 0 means session cookie
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site,omitempty"`
}

// OriginStorage holds localStorage entries captured for one origin
type OriginStorage struct {
	Origin  string            `json:"origin"`
	Entries map[string]string `json:"entries"`
}

// Session is the cached authentication artifact. A session is either a
// complete, directly-loadable snapshot or absent; partially parsed
// snapshots are treated as absent by the store.
type Session struct {
	Cookies    []SessionCookie `json:"cookies"`
	Storage    []OriginStorage `json:"storage,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`
}

// IsEmpty reports whether the snapshot carries no usable cookies
func (s *Session) IsEmpty() bool {
	return s == nil || len(s.Cookies) == 0
}
