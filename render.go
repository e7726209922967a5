package blade

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// Response is a template name with its data and status, for handlers that
// return what to render.
type Response interface {
	Name() string
	Data() any
	Status() int
}

type response struct {
	name   string
	data   any
	status int
}

// NewResponse returns a Response, with status 200 unless given.
func NewResponse(name string, data any, status ...int) Response {
	statusCode := http.StatusOK
	if len(status) > 0 {
		statusCode = status[0]
	}
	return response{
		name:   name,
		data:   data,
		status: statusCode,
	}
}

func (r response) Name() string {
	return r.name
}

func (r response) Data() any {
	return r.data
}

func (r response) Status() int {
	return r.status
}

// Respond renders r through the engine set as the gin HTML renderer.
func Respond(c *gin.Context, r Response) {
	c.HTML(r.Status(), r.Name(), r.Data())
}

var _ render.HTMLRender = (*HtmlRender)(nil)

// HtmlRender gin HtmlRender compatible
type HtmlRender struct {
	e *Engine
	// Prepare, when set, configures each View before it renders, for
	// example with the user from the request.
	Prepare func(v *View)
}

// NewHTMLRender create a new HtmlRender
func NewHTMLRender(e *Engine) *HtmlRender {
	return &HtmlRender{e: e}
}

// Instance returns a new render.Render
func (h *HtmlRender) Instance(name string, data any) render.Render {
	return &Render{e: h.e, name: name, data: data, prepare: h.Prepare}
}

// Render renders HTML template with data and write to w
type Render struct {
	e       *Engine
	name    string
	data    any
	prepare func(v *View)
}

// Render renders HTML template with data and writes to w
func (r *Render) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	v := r.e.NewView()
	if r.prepare != nil {
		r.prepare(v)
	}
	out, err := v.Run(r.name, r.data)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(out))
	return err
}

// WriteContentType write an HTML content type to the response header if not set
func (r *Render) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
