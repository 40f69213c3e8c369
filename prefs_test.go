package goatdash

import (
	"context"
	"strings"
	"testing"

	"zgo.at/goatdash/pkg/store"
	"zgo.at/zstd/ztest"
	"zgo.at/zstd/ztime"
)

func TestPrefsLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name               string
		stored             map[string]string
		site               string
		nFavorites, nNotes int
	}{
		{"empty", nil, "", 0, 0},
		{"plain site", map[string]string{KeyActiveSite: "site-1"}, "site-1", 0, 0},
		{"json site", map[string]string{KeyActiveSite: `"site-2"`}, "site-2", 0, 0},
		{"malformed", map[string]string{
			KeyFavorites: "{not json",
			KeyNotes:     "null",
		}, "", 0, 0},
		{"valid", map[string]string{
			KeyFavorites: `[{"id":"pageviews","name":"Page Views","section":"metrics","value":"1,234","timestamp":"2024-01-01T00:00:00Z"}]`,
			KeyNotes:     `[{"id":"2024-01-01-a","date":"2024-01-01","content":"launch","timestamp":"2024-01-01T00:00:00Z"},{"id":"2024-01-02-b","date":"2024-01-02","content":"x","timestamp":"2024-01-02T00:00:00Z"}]`,
		}, "", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			for k, v := range tt.stored {
				s.Set(ctx, k, v)
			}

			p := NewPrefs(ctx, s)
			if have := p.ActiveSite(); have != tt.site {
				t.Errorf("site\nhave: %q\nwant: %q", have, tt.site)
			}
			if have := len(p.Favorites()); have != tt.nFavorites {
				t.Errorf("favorites\nhave: %d\nwant: %d", have, tt.nFavorites)
			}
			if have := len(p.Notes()); have != tt.nNotes {
				t.Errorf("notes\nhave: %d\nwant: %d", have, tt.nNotes)
			}
			if p.Favorites() == nil || p.Notes() == nil {
				t.Error("nil list")
			}
		})
	}
}

func TestPrefsFavorites(t *testing.T) {
	ctx := ztime.WithNow(context.Background(), ztime.FromString("2024-03-01"))
	s := store.NewMemory()
	p := NewPrefs(ctx, s)

	f := Favorite{ID: "pageviews", Name: "Page Views", Section: "metrics", Value: "42"}

	added, err := p.ToggleFavorite(ctx, f)
	if err != nil || !added {
		t.Fatalf("added=%v err=%v", added, err)
	}
	if !p.IsFavorite("pageviews") {
		t.Error("not a favorite")
	}
	if have := p.Favorites()[0].CreatedAt; !have.Equal(ztime.FromString("2024-03-01")) {
		t.Errorf("timestamp: %s", have)
	}

	// Persisted and reloaded.
	p2 := NewPrefs(ctx, s)
	if !p2.IsFavorite("pageviews") {
		t.Error("not persisted")
	}

	added, err = p.ToggleFavorite(ctx, f)
	if err != nil || added {
		t.Fatalf("added=%v err=%v", added, err)
	}
	if p.IsFavorite("pageviews") || len(p.Favorites()) != 0 {
		t.Error("still a favorite")
	}
	v, _, _ := s.Get(ctx, KeyFavorites)
	if v != "[]" {
		t.Errorf("stored: %q", v)
	}

	_, err = p.ToggleFavorite(ctx, Favorite{})
	if !ztest.ErrorContains(err, "empty") {
		t.Errorf("wrong error: %v", err)
	}
}

func TestPrefsNotes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := NewPrefs(ctx, s)

	n1, err := p.AddNote(ctx, "2024-01-05", "  deployed *v2*  ")
	if err != nil {
		t.Fatal(err)
	}
	if n1.Content != "deployed *v2*" || !strings.HasPrefix(n1.ID, "2024-01-05-") {
		t.Errorf("%#v", n1)
	}
	n2, err := p.AddNote(ctx, "2024-01-05", "second")
	if err != nil {
		t.Fatal(err)
	}
	if n1.ID == n2.ID {
		t.Error("duplicate ID")
	}
	_, err = p.AddNote(ctx, "2024-01-06", "other day")
	if err != nil {
		t.Fatal(err)
	}

	if have := len(p.NotesFor("2024-01-05")); have != 2 {
		t.Errorf("NotesFor: %d", have)
	}

	_, err = p.AddNote(ctx, "2024-01-05", "   ")
	if !ztest.ErrorContains(err, "empty") {
		t.Errorf("wrong error: %v", err)
	}

	if err := p.DeleteNote(ctx, n1.ID); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteNote(ctx, "nonexistent"); err != nil {
		t.Fatal(err)
	}
	if have := len(NewPrefs(ctx, s).Notes()); have != 2 {
		t.Errorf("after delete: %d", have)
	}
}

func TestPrefsActiveSite(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	if err := NewPrefs(ctx, s).SetActiveSite(ctx, "site-3"); err != nil {
		t.Fatal(err)
	}
	if have := NewPrefs(ctx, s).ActiveSite(); have != "site-3" {
		t.Errorf("have: %q", have)
	}
}

func TestNoteHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"*hello*", "<p><em>hello</em></p>\n"},
		{"<script>alert(1)</script>x", "script"},
		{"[x](javascript:alert(1))", "javascript"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			have := string(Note{Content: tt.in}.HTML())
			switch {
			case tt.want == "script":
				if strings.Contains(have, "<script") {
					t.Errorf("raw HTML: %s", have)
				}
			case tt.want == "javascript":
				if strings.Contains(have, `href="javascript`) {
					t.Errorf("unsafe link: %s", have)
				}
			case have != tt.want:
				t.Errorf("\nhave: %q\nwant: %q", have, tt.want)
			}
		})
	}
}
