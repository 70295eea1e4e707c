package httpserver

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/cinemateca/internal/media"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFuncs = template.FuncMap{
	"pathEscape": url.PathEscape,
}

func parsePages() *template.Template {
	return template.Must(template.New("pages").Funcs(pageFuncs).ParseFS(templateFS, "templates/*.html"))
}

type indexPage struct {
	Files []string
}

type playPage struct {
	Name string
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	files, err := s.media.List(r.Context())
	if err != nil {
		loggerFrom(r, s.logger).Error().Err(err).Str("root", s.media.Root()).Msg("list media failed")
		http.Error(w, "Failed to list media", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, r, "index.html", indexPage{Files: files})
}

// handlePlayPage renders a player for the requested file. The name is reduced to
// its base name; whether the file exists is left to the /media file server.
func (s *Server) handlePlayPage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "filename")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	name := media.ResolveForPlayback(raw)
	if name == "" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, r, "play.html", playPage{Name: name})
}

// handleMedia streams one listed media file with range support. Names outside the
// allow-list, directories and the bare /media/ path all answer 404.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	f, info, err := s.media.Open(name)
	if err != nil {
		if errors.Is(err, media.ErrNotPlayable) {
			http.NotFound(w, r)
			return
		}
		loggerFrom(r, s.logger).Error().Err(err).Str("file", name).Msg("open media failed")
		http.Error(w, "Failed to open media", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		loggerFrom(r, s.logger).Error().Err(err).Str("template", name).Msg("render page failed")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
