package blade

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(e *Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHTMLRender(e)
	h.Prepare = func(v *View) { v.SetAuth("ann", "admin") }
	r.HTMLRender = h
	r.GET("/home", func(c *gin.Context) {
		Respond(c, NewResponse("pages.home", gin.H{"title": c.Query("title")}))
	})
	r.GET("/created", func(c *gin.Context) {
		Respond(c, NewResponse("pages.home", gin.H{"title": "new"}, http.StatusCreated))
	})
	return r
}

func TestHTMLRender(t *testing.T) {
	e := newTestEngine(map[string]string{
		"pages.home": "<h1>{{ $title }}</h1>@auth('admin')[admin]@endauth",
	})
	r := newRouter(e)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home?title=%3Cb%3E", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<h1>&lt;b&gt;</h1>[admin]", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/created", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "<h1>new</h1>[admin]", w.Body.String())
}

func TestHTMLRenderError(t *testing.T) {
	e := newTestEngine(nil)
	r := newRouter(e)
	var renderErr any
	r.GET("/broken", func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				renderErr = rec
			}
		}()
		c.HTML(http.StatusOK, "pages.missing", nil)
		if err := c.Errors.Last(); err != nil {
			renderErr = err.Err
		}
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	err, ok := renderErr.(error)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestNewResponse(t *testing.T) {
	r := NewResponse("a", 1)
	assert.Equal(t, "a", r.Name())
	assert.Equal(t, 1, r.Data())
	assert.Equal(t, http.StatusOK, r.Status())
}
