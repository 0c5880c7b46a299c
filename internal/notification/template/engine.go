// Package template maps a notification type and its context to user-facing text.
//
// Every template is a pure function. Missing optional context degrades the wording
// instead of failing, so enrichment gaps never block a notification.
package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

// Context carries everything a template may reference. All fields are optional.
type Context struct {
	ActorName     string
	RecipientName string
	EntityType    string
	EntityID      string
	ListingID     string
	CommentID     string
	CommentText   string
	GameID        string
	GameTitle     string
	DeviceName    string
	EmulatorID    string
	EmulatorName  string
	SocName       string
	OldRole       string
	NewRole       string
	Reason        string
	Status        string
	Title         string
	Message       string
	Version       string
	VoteValue     int
	UnreadCount   int64
	Extra         valueobject.JSONMap
}

type Rendered struct {
	Title     string
	Message   string
	ActionURL string
	Metadata  valueobject.JSONMap
}

type RenderFunc func(c Context) Rendered

type definition struct {
	category entity.Category
	render   RenderFunc
}

type Engine struct {
	defs map[entity.NotificationType]definition
}

// New returns an engine with every built-in notification type registered.
func New() *Engine {
	e := &Engine{defs: make(map[entity.NotificationType]definition)}
	registerDefaults(e)
	return e
}

// Register adds or replaces the template for t.
func (e *Engine) Register(t entity.NotificationType, category entity.Category, fn RenderFunc) {
	e.defs[t] = definition{category: category, render: fn}
}

func (e *Engine) Render(t entity.NotificationType, c Context) (Rendered, error) {
	def, ok := e.defs[t]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", entity.ErrUnknownNotificationType, t)
	}

	out := def.render(c)
	if out.Metadata == nil {
		out.Metadata = valueobject.JSONMap{}
	}
	for k, v := range c.Extra {
		out.Metadata.SetIfAbsent(k, v)
	}

	return out, nil
}

// Category classifies t for preference grouping and rate-limit tiering.
func (e *Engine) Category(t entity.NotificationType) (entity.Category, error) {
	def, ok := e.defs[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrUnknownNotificationType, t)
	}

	return def.category, nil
}

// Types returns the registered types in a stable order.
func (e *Engine) Types() []entity.NotificationType {
	out := make([]entity.NotificationType, 0, len(e.defs))
	for t := range e.defs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func listingLabel(c Context) string {
	switch {
	case c.GameTitle != "" && c.DeviceName != "":
		return fmt.Sprintf("%s on %s", c.GameTitle, c.DeviceName)
	case c.GameTitle != "":
		return c.GameTitle
	default:
		return "your listing"
	}
}

func listingURL(id string) string {
	if id == "" {
		return ""
	}
	return "/listings/" + id
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
