package handler

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	pageIndex    = "index.html"
	pageRegister = "register.html"
	pageLogin    = "login.html"
	pageSearch   = "search.html"
	pageBook     = "book.html"
)

type pageData struct {
	Email  string
	Error  string
	Filter model.SearchFilter
	Books  []model.Book
	View   model.BookView
}

// Renderer renders each page inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() *Renderer {
	pages := make(map[string]*template.Template)
	for _, name := range []string{pageIndex, pageRegister, pageLogin, pageSearch, pageBook} {
		pages[name] = template.Must(template.ParseFS(templateFiles, "templates/layout.html", "templates/"+name))
	}
	return &Renderer{pages: pages}
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
