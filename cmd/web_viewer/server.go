package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rybak/internal/database"
	"rybak/internal/scripts/autofish"
)

//go:embed templates/*.html
var templatesFS embed.FS

const entriesPerPage = 50

var quickActions = []string{"start", "stop", "save_log", "clear", "prediction:on", "prediction:off"}

// store то, что нужно странице от базы
type store interface {
	GetStatus(ctx context.Context) (database.Status, error)
	RecentActions(ctx context.Context, limit int) ([]database.Action, error)
	Sessions(ctx context.Context, limit int) ([]database.SessionStats, error)
	RecentEntries(ctx context.Context, f database.LogFilter) ([]database.LogRow, error)
	AddAction(ctx context.Context, action string) error
}

type PageData struct {
	Status   database.Status
	Actions  []database.Action
	Sessions []database.SessionStats
	Entries  []database.LogRow

	Session     string
	Kind        string
	CurrentPage int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Flash       string

	QuickActions []string
}

type server struct {
	db   store
	tmpl *template.Template
}

func newServer(db store) *server {
	tmpl := template.Must(template.New("layout").Funcs(template.FuncMap{
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("02.01.2006 15:04:05")
		},
		"formatTime": func(t time.Time) string {
			return t.Local().Format("15:04:05.000")
		},
		"num": func(v sql.NullFloat64) string {
			if !v.Valid {
				return "-"
			}
			return strconv.FormatFloat(v.Float64, 'f', 0, 64)
		},
		"formatKind": func(kind string) string {
			switch kind {
			case "press":
				return "⬆️ PRESS"
			case "release":
				return "⬇️ RELEASE"
			case "release_aligned":
				return "🎯 ALIGNED"
			case "note":
				return "📝"
			default:
				return kind
			}
		},
	}).ParseFS(templatesFS, "templates/*.html"))
	return &server{db: db, tmpl: tmpl}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.index)
	mux.HandleFunc("/action", s.action)
	return mux
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	data := PageData{
		Session:     q.Get("session"),
		Kind:        q.Get("kind"),
		CurrentPage: page,
		Flash:       q.Get("flash"),

		QuickActions: quickActions,
	}

	var err error
	if data.Status, err = s.db.GetStatus(ctx); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if data.Actions, err = s.db.RecentActions(ctx, 10); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if data.Sessions, err = s.db.Sessions(ctx, 10); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	// берём на одну запись больше, чтобы знать о следующей странице
	entries, err := s.db.RecentEntries(ctx, database.LogFilter{
		Session: data.Session,
		Kind:    data.Kind,
		Limit:   entriesPerPage + 1,
		Offset:  (page - 1) * entriesPerPage,
	})
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if len(entries) > entriesPerPage {
		entries = entries[:entriesPerPage]
		data.HasNext = true
	}
	data.Entries = entries
	data.HasPrev = page > 1
	data.PrevPage = page - 1
	data.NextPage = page + 1

	if err := s.tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		http.Error(w, "Template execution error: "+err.Error(), http.StatusInternalServerError)
	}
}

// action ставит удалённую команду в очередь бота
func (s *server) action(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a := r.FormValue("action")
	if _, err := autofish.ParseRemoteAction(a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.db.AddAction(r.Context(), a); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/?flash="+url.QueryEscape(fmt.Sprintf("Действие добавлено: %s", a)), http.StatusSeeOther)
}
