package models

// GenerateRequest is a topic memo submitted for draft generation
type GenerateRequest struct {
	Topic     string   `json:"topic" validate:"required,min=4"`
	Audience  string   `json:"audience,omitempty"`
	Tone      string   `json:"tone,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	WithImage bool     `json:"with_image"`
}

// ArticleDraft is a generated, publish-ready draft
type ArticleDraft struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"` // Markdown
	PreviewHTML string   `json:"preview_html,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	HeaderImage string   `json:"header_image,omitempty"` // Base64 PNG or provider URL
	ImageSource string   `json:"image_source,omitempty"` // Which provider produced the image
}

// PublishRequest is a publish-job submission. Automation endpoints only
// accept mode "development"; anything else is rejected before any side
// effect.
type PublishRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Body        string   `json:"body" validate:"required,min=1"`
	Tags        []string `json:"tags,omitempty"`
	ScheduledAt *string  `json:"scheduled_at,omitempty"`
	Mode        string   `json:"mode" validate:"required,oneof=development production"`
	Email       string   `json:"email,omitempty" validate:"omitempty,email"`
	Password    string   `json:"password,omitempty"`
	VisualDebug bool     `json:"visual_debug,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
	ArticleID   string   `json:"article_id,omitempty"`
}
