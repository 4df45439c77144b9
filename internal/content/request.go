package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"reelforge/internal/services"
	"reelforge/internal/textutil"
)

// ItemType distinguishes moving footage from still images.
type ItemType string

const (
	ItemVideo ItemType = "video"
	ItemImage ItemType = "image"
)

// Text formats accepted for narration.
const (
	TextPlain    = "plain"
	TextMarkdown = "markdown"
)

// Item is one piece of footage plus the narration spoken over it.
type Item struct {
	Type       ItemType `json:"type" yaml:"type"`
	URL        string   `json:"url" yaml:"url"`
	Text       string   `json:"text" yaml:"text"`
	OverlayURL string   `json:"overlay_url,omitempty" yaml:"overlay_url,omitempty"`
}

// Request describes one video to assemble.
type Request struct {
	LanguageCode       string `json:"language_code" yaml:"language_code"`
	VoiceName          string `json:"voice_name" yaml:"voice_name"`
	LogoURL            string `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
	BackgroundMusicURL string `json:"background_music_url,omitempty" yaml:"background_music_url,omitempty"`
	Preset             string `json:"preset,omitempty" yaml:"preset,omitempty"`
	TextFormat         string `json:"text_format,omitempty" yaml:"text_format,omitempty"`
	Items              []Item `json:"content" yaml:"content"`
}

// ValidateOptions tunes request validation for the calling surface.
type ValidateOptions struct {
	// AllowLocalFiles permits file:// URLs and bare paths (batch mode only).
	AllowLocalFiles bool
}

// Validate checks the request and returns an error marked services.ErrValidation.
func (r *Request) Validate(opts ValidateOptions) error {
	var problems []string
	if len(r.Items) == 0 {
		problems = append(problems, "content must contain at least one item")
	}
	if strings.TrimSpace(r.VoiceName) == "" {
		problems = append(problems, "voice_name is required")
	}
	if _, err := r.Language(); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(strings.TrimSpace(r.TextFormat)) {
	case "", TextPlain, TextMarkdown:
	default:
		problems = append(problems, fmt.Sprintf("text_format must be %q or %q", TextPlain, TextMarkdown))
	}
	if r.LogoURL != "" {
		if err := checkSource(r.LogoURL, opts); err != nil {
			problems = append(problems, "logo_url: "+err.Error())
		}
	}
	if r.BackgroundMusicURL != "" {
		if err := checkSource(r.BackgroundMusicURL, opts); err != nil {
			problems = append(problems, "background_music_url: "+err.Error())
		}
	}
	for i, item := range r.Items {
		prefix := fmt.Sprintf("content[%d]", i)
		switch item.Type {
		case ItemVideo, ItemImage:
		default:
			problems = append(problems, fmt.Sprintf("%s.type must be %q or %q, got %q", prefix, ItemVideo, ItemImage, item.Type))
		}
		if err := checkSource(item.URL, opts); err != nil {
			problems = append(problems, prefix+".url: "+err.Error())
		}
		if strings.TrimSpace(item.Text) == "" {
			problems = append(problems, prefix+".text is required")
		}
		if item.OverlayURL != "" {
			if err := checkSource(item.OverlayURL, opts); err != nil {
				problems = append(problems, prefix+".overlay_url: "+err.Error())
			}
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "validate", "request", strings.Join(problems, "; "), nil)
}

// Language parses the BCP-47 language code.
func (r *Request) Language() (language.Tag, error) {
	code := strings.TrimSpace(r.LanguageCode)
	if code == "" {
		return language.Und, errors.New("language_code is required")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, fmt.Errorf("language_code %q is not a valid BCP-47 tag", code)
	}
	return tag, nil
}

// NarrationText returns item text ready for segmentation.
func (r *Request) NarrationText(item Item) string {
	if strings.EqualFold(strings.TrimSpace(r.TextFormat), TextMarkdown) {
		return textutil.PlainText(item.Text)
	}
	return strings.TrimSpace(item.Text)
}

// IsLocal reports whether source names a local file rather than a remote URL.
func IsLocal(source string) bool {
	source = strings.TrimSpace(source)
	if strings.HasPrefix(source, "file://") {
		return true
	}
	parsed, err := url.Parse(source)
	return err != nil || parsed.Scheme == "" || len(parsed.Scheme) == 1
}

func checkSource(source string, opts ValidateOptions) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return errors.New("is required")
	}
	if IsLocal(source) {
		if !opts.AllowLocalFiles {
			return errors.New("local files are not accepted here")
		}
		return nil
	}
	parsed, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// UnmarshalJSON accepts the original field names source_url and narration_text.
func (i *Item) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type          ItemType `json:"type"`
		URL           string   `json:"url"`
		SourceURL     string   `json:"source_url"`
		Text          string   `json:"text"`
		NarrationText string   `json:"narration_text"`
		OverlayURL    string   `json:"overlay_url"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Item{
		Type:       ItemType(strings.ToLower(strings.TrimSpace(string(aux.Type)))),
		URL:        firstNonEmpty(aux.URL, aux.SourceURL),
		Text:       firstNonEmpty(aux.Text, aux.NarrationText),
		OverlayURL: strings.TrimSpace(aux.OverlayURL),
	}
	return nil
}

// UnmarshalJSON accepts language_name as an alias for voice_name.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var aux struct {
		plain
		LanguageName string `json:"language_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Request(aux.plain)
	r.VoiceName = firstNonEmpty(r.VoiceName, aux.LanguageName)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
