package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"zgo.at/goatdash"
	"zgo.at/guru"
	"zgo.at/zhttp"
	"zgo.at/zvalidate"
)

func (h backend) favorites(w http.ResponseWriter, r *http.Request) error {
	return zhttp.JSON(w, h.prefs.Favorites())
}

func (h backend) toggleFavorite(w http.ResponseWriter, r *http.Request) error {
	var args goatdash.Favorite
	if _, err := zhttp.Decode(r, &args); err != nil {
		return err
	}
	if id := chi.URLParam(r, "id"); id != "" {
		args.ID = id
	}
	if args.ID == "" && args.Section != "" && args.Value != "" {
		args.ID = args.Section + "-" + args.Value
	}

	added, err := h.prefs.ToggleFavorite(r.Context(), args)
	if err != nil {
		return err
	}

	if wantJSON(r) {
		return zhttp.JSON(w, map[string]any{
			"added":     added,
			"favorites": h.prefs.Favorites(),
		})
	}
	return zhttp.SeeOther(w, back(r))
}

func (h backend) notes(w http.ResponseWriter, r *http.Request) error {
	if d := r.URL.Query().Get("date"); d != "" {
		return zhttp.JSON(w, h.prefs.NotesFor(d))
	}
	return zhttp.JSON(w, h.prefs.Notes())
}

func (h backend) addNote(w http.ResponseWriter, r *http.Request) error {
	var args struct {
		Date    string `json:"date"`
		Content string `json:"content"`
	}
	if _, err := zhttp.Decode(r, &args); err != nil {
		return err
	}

	v := zvalidate.New()
	v.Required("date", args.Date)
	if _, err := time.Parse("2006-01-02", args.Date); args.Date != "" && err != nil {
		v.Append("date", "must be a date as year-month-day")
	}
	v.Required("content", strings.TrimSpace(args.Content))
	v.Len("content", args.Content, 0, 10_000)
	if err := v.ErrorOrNil(); err != nil {
		return err
	}

	n, err := h.prefs.AddNote(r.Context(), args.Date, args.Content)
	if err != nil {
		return err
	}

	if wantJSON(r) {
		return zhttp.JSON(w, n)
	}
	zhttp.Flash(w, r, "Note added for "+n.Date)
	return zhttp.SeeOther(w, back(r))
}

func (h backend) deleteNote(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if id == "" {
		return guru.New(400, "no note ID")
	}
	if err := h.prefs.DeleteNote(r.Context(), id); err != nil {
		return err
	}
	if wantJSON(r) {
		return zhttp.JSON(w, map[string]string{"deleted": id})
	}
	return zhttp.SeeOther(w, back(r))
}

// back gets the dashboard URL to redirect to after a form post; only local
// paths from the Referer are used.
func back(r *http.Request) string {
	ref := r.Referer()
	if i := strings.Index(ref, r.Host); r.Host != "" && i > -1 {
		ref = ref[i+len(r.Host):]
	}
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return "/"
	}
	return ref
}
