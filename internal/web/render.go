package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{
	"index",
	"about",
	"contact",
	"menu",
	"checkout",
	"bill",
	"add_menu_item",
	"error",
}

// pageData - общая модель для всех страниц.
type pageData struct {
	Title     string
	Flash     *flashMessage
	Error     string
	Items     []domain.MenuItem
	Order     domain.Order
	Form      formValues
	Status    int
	Message   string
	RequestID string
}

// formValues хранит введённые значения для повторного показа формы.
type formValues struct {
	Username string
	Name     string
	Price    string
	Selected map[int64]bool
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{
		"price": func(d decimal.Decimal) string { return domain.FormatPrice(d) },
		"year":  func() int { return time.Now().Year() },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &renderer{pages: pages}, nil
}

// execute рендерит страницу целиком в буфер, чтобы ошибка шаблона не оставила полуответ.
func (r *renderer) execute(page string, data pageData) ([]byte, error) {
	tmpl, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", page, err)
	}
	return buf.Bytes(), nil
}
