package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/activity"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/crypt"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
)

// ErrNotConfigured means the editor cannot be rendered: no shared secret is
// configured or the document has no backing file. Callers surface this as a
// page-level configuration error.
var ErrNotConfigured = errors.New("editor is not configured")

// Config is the configuration object handed to the OnlyOffice editor widget.
// The token field is the signature over the rest of the structure; the
// document server uses it to integrity-check everything we sent.
type Config struct {
	Type         string         `json:"type"`
	Document     DocumentConfig `json:"document"`
	EditorConfig EditorConfig   `json:"editorConfig"`
	Token        string         `json:"token,omitempty"`
}

type DocumentConfig struct {
	URL         string             `json:"url"`
	FileType    string             `json:"fileType"`
	Title       string             `json:"title"`
	Key         string             `json:"key"`
	Permissions access.Permissions `json:"permissions"`
}

type EditorConfig struct {
	CallbackURL   string        `json:"callbackUrl"`
	User          UserConfig    `json:"user"`
	Customization Customization `json:"customization"`
}

type UserConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Customization struct {
	GoBack            GoBack `json:"goback"`
	ForceSave         bool   `json:"forcesave"`
	CommentAuthorOnly bool   `json:"commentAuthorOnly"`
}

type GoBack struct {
	Blank bool   `json:"blank"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Builder assembles signed editor configurations.
type Builder struct {
	codec         *crypt.Codec
	publicURL     string
	courseViewURL string
}

func NewBuilder(codec *crypt.Codec, publicURL, courseViewURL string) *Builder {
	return &Builder{
		codec:         codec,
		publicURL:     strings.TrimRight(publicURL, "/"),
		courseViewURL: courseViewURL,
	}
}

// Build assembles the editor configuration for one actor viewing one
// document. Fails with ErrNotConfigured when no secret is set or the
// document has no backing file.
func (b *Builder) Build(act *activity.Activity, doc *document.Document, file *store.FileInfo, actor *access.Actor, userAgent string) (*Config, error) {
	if !b.codec.Configured() || file == nil {
		return nil, ErrNotConfigured
	}

	ticket := &access.Ticket{Actor: *actor, CMID: act.ID, GroupID: doc.GroupID}
	docToken, err := b.codec.EncodeAndSign(ticket.Claims())
	if err != nil {
		return nil, fmt.Errorf("sign document ticket: %w", err)
	}

	cfg := &Config{
		Type: DeviceType(userAgent),
		Document: DocumentConfig{
			URL:         b.downloadURL(act.ID, doc.GroupID, file.Filename, docToken),
			FileType:    file.Ext,
			Title:       file.Filename,
			Key:         doc.Key,
			Permissions: access.PermissionsFor(act, doc, actor),
		},
		EditorConfig: EditorConfig{
			CallbackURL: b.publicURL + "/callback?doc=" + url.QueryEscape(docToken),
			User:        UserConfig{ID: actor.ID, Name: actor.Name},
			Customization: Customization{
				GoBack: GoBack{
					Blank: false,
					Text:  "Return to course",
					URL:   b.courseURL(act.CourseID),
				},
				ForceSave:         true,
				CommentAuthorOnly: true,
			},
		},
	}

	token, err := b.sign(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Token = token
	return cfg, nil
}

// OfflineDownloadURL builds the signed direct-download link offered when the
// document server is unreachable and the page falls back to download-only
// mode.
func (b *Builder) OfflineDownloadURL(act *activity.Activity, doc *document.Document, file *store.FileInfo, actor *access.Actor) (string, error) {
	if !b.codec.Configured() || file == nil {
		return "", ErrNotConfigured
	}
	ticket := &access.Ticket{Actor: *actor, CMID: act.ID, GroupID: doc.GroupID}
	docToken, err := b.codec.EncodeAndSign(ticket.Claims())
	if err != nil {
		return "", fmt.Errorf("sign document ticket: %w", err)
	}
	return b.downloadURL(act.ID, doc.GroupID, file.Filename, docToken), nil
}

// sign wraps the whole config in the codec so the document server can verify
// it was not tampered with in the browser.
func (b *Builder) sign(cfg *Config) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", fmt.Errorf("unmarshal config: %w", err)
	}
	return b.codec.EncodeAndSign(claims)
}

func (b *Builder) downloadURL(activityID string, groupID int64, filename, docToken string) string {
	return fmt.Sprintf("%s/files/%s/%s/%d/%s?doc=%s",
		b.publicURL, activityID, "group", groupID, url.PathEscape(filename), url.QueryEscape(docToken))
}

func (b *Builder) courseURL(courseID string) string {
	if b.courseViewURL == "" || courseID == "" {
		return ""
	}
	return b.courseViewURL + "?id=" + url.QueryEscape(courseID)
}

// DeviceType maps the client User-Agent to the editor's device class.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, marker := range []string{"mobile", "android", "iphone", "ipad", "tablet"} {
		if strings.Contains(ua, marker) {
			return "mobile"
		}
	}
	return "desktop"
}
