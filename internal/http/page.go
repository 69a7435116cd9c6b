package http

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTmpl = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{
			"remaining": func(tasks []taskstore.Task) int {
				n := 0
				for _, t := range tasks {
					if !t.Completed {
						n++
					}
				}
				return n
			},
		}).
		ParseFS(templatesFS, "templates/index.html"),
)

type indexPageData struct {
	Tasks []taskstore.Task
}

// pageRenderer renders the embedded templates through echo.Context.Render.
type pageRenderer struct{}

func (pageRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return indexTmpl.ExecuteTemplate(w, name, data)
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", indexPageData{Tasks: s.store.ListAll()})
}
