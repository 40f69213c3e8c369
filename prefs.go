package goatdash

import (
	"context"
	"encoding/json"
	"html/template"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
	"zgo.at/errors"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/goatdash/pkg/store"
	"zgo.at/guru"
	"zgo.at/zstd/ztime"
)

// Keys in the preferences store.
const (
	KeyActiveSite = "activeSiteId"
	KeyNotes      = "analytics-notes"
	KeyFavorites  = "analytics-favorites"
)

// Prefs are the user's UI preferences: favorites, notes, and the active site.
//
// Everything is read once when it's created, and written back on every change.
// Missing or broken values in the store are logged and replaced with empty
// values.
type Prefs struct {
	mu        sync.Mutex
	s         store.Storage
	site      string
	favorites []Favorite
	notes     []Note
}

// NewPrefs loads the preferences from the store.
func NewPrefs(ctx context.Context, s store.Storage) *Prefs {
	p := &Prefs{s: s}
	p.site = readString(ctx, s, KeyActiveSite)
	p.favorites = readJSON[Favorite](ctx, s, KeyFavorites)
	p.notes = readJSON[Note](ctx, s, KeyNotes)
	return p
}

func readString(ctx context.Context, s store.Storage, key string) string {
	v, _, err := s.Get(ctx, key)
	if err != nil {
		log.Module("prefs").Warn(ctx, "reading preference", "key", key, "err", err)
		return ""
	}
	// Accept both a plain string and a JSON string.
	if strings.HasPrefix(v, `"`) {
		var str string
		if json.Unmarshal([]byte(v), &str) == nil {
			return str
		}
	}
	return v
}

func readJSON[T any](ctx context.Context, s store.Storage, key string) []T {
	l := log.Module("prefs")
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		l.Warn(ctx, "reading preference", "key", key, "err", err)
		return []T{}
	}
	if !ok || v == "" {
		return []T{}
	}
	var list []T
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		l.Warn(ctx, "ignoring malformed preference", "key", key, "err", err)
		return []T{}
	}
	if list == nil { // "null"
		list = []T{}
	}
	return list
}

func (p *Prefs) writeJSON(ctx context.Context, key string, v any) error {
	j, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "Prefs")
	}
	return errors.Wrapf(p.s.Set(ctx, key, string(j)), "Prefs: writing %q", key)
}

// ActiveSite gets the active site ID, or an empty string if none was stored.
func (p *Prefs) ActiveSite() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.site
}

// SetActiveSite stores the active site.
func (p *Prefs) SetActiveSite(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.site = id
	return errors.Wrap(p.s.Set(ctx, KeyActiveSite, id), "Prefs.SetActiveSite")
}

// Favorites gets a copy of all favorites, in the order they were added.
func (p *Prefs) Favorites() []Favorite {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := make([]Favorite, len(p.favorites))
	copy(c, p.favorites)
	return c
}

// IsFavorite reports if the ID is a favorite.
func (p *Prefs) IsFavorite(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.favorites {
		if f.ID == id {
			return true
		}
	}
	return false
}

// ToggleFavorite adds the favorite if there isn't one with the same ID yet, or
// removes it if there is. It returns true if it was added.
func (p *Prefs) ToggleFavorite(ctx context.Context, f Favorite) (bool, error) {
	if f.ID == "" {
		return false, guru.New(400, "favorite ID is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	added := true
	for i, ff := range p.favorites {
		if ff.ID == f.ID {
			p.favorites = append(p.favorites[:i:i], p.favorites[i+1:]...)
			added = false
			break
		}
	}
	if added {
		if f.CreatedAt.IsZero() {
			f.CreatedAt = ztime.Now(ctx)
		}
		p.favorites = append(p.favorites, f)
	}
	return added, p.writeJSON(ctx, KeyFavorites, p.favorites)
}

// Notes gets a copy of all notes, in the order they were added.
func (p *Prefs) Notes() []Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := make([]Note, len(p.notes))
	copy(c, p.notes)
	return c
}

// NotesFor gets all notes for a date.
func (p *Prefs) NotesFor(date string) []Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n []Note
	for _, nn := range p.notes {
		if nn.Date == date {
			n = append(n, nn)
		}
	}
	return n
}

// AddNote adds a new note for the date.
func (p *Prefs) AddNote(ctx context.Context, date, content string) (Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Note{}, guru.New(400, "note is empty")
	}

	n := Note{
		ID:        date + "-" + uuid.NewString(),
		Date:      date,
		Content:   content,
		CreatedAt: ztime.Now(ctx),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, n)
	return n, p.writeJSON(ctx, KeyNotes, p.notes)
}

// DeleteNote deletes a note; it's not an error if the note doesn't exist.
func (p *Prefs) DeleteNote(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.notes {
		if n.ID == id {
			p.notes = append(p.notes[:i:i], p.notes[i+1:]...)
			return p.writeJSON(ctx, KeyNotes, p.notes)
		}
	}
	return nil
}

var markdownOpt = []blackfriday.Option{
	blackfriday.WithNoExtensions(),
	blackfriday.WithExtensions(blackfriday.NoExtensions |
		blackfriday.NoIntraEmphasis |
		blackfriday.FencedCode |
		blackfriday.Strikethrough |
		blackfriday.BackslashLineBreak |
		blackfriday.Autolink,
	),
	blackfriday.WithRenderer(blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks | blackfriday.HrefTargetBlank,
	})),
}

// HTML renders the note's content as Markdown. Raw HTML is skipped.
func (n Note) HTML() template.HTML {
	return template.HTML(blackfriday.Run([]byte(n.Content), markdownOpt...))
}
