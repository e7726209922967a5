package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	blade "github.com/dangdungcntt/go-blade/v2"
	"github.com/dangdungcntt/go-blade/v2/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var watchFiles bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve templates over HTTP: /pages/home renders pages.home",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			e, err := a.engine(reg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchFiles {
				w, err := watch.New(e.Config().FileExtension, 100*time.Millisecond, func(files []string) {
					for _, f := range files {
						if name, ok := e.NameFromFile(f); ok {
							a.logger.Info("template changed", slog.String("template", name))
							e.Forget(name)
						}
					}
				}, a.logger)
				if err != nil {
					return err
				}
				for _, dir := range e.Config().TemplatePaths {
					if err := w.AddRecursive(dir); err != nil {
						return err
					}
				}
				go func() { _ = w.Run(ctx) }()
			}

			srv := &http.Server{Addr: addr, Handler: newRouter(e, reg)}
			go func() {
				<-ctx.Done()
				shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()
			a.logger.Info("listening", slog.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&watchFiles, "watch", true, "recompile templates when they change")
	return cmd
}

// newRouter renders the template named by the request path, with the query
// string as data. /metrics exposes the engine metrics.
func newRouter(e *blade.Engine, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.HTMLRender = blade.NewHTMLRender(e)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.NoRoute(func(c *gin.Context) {
		name := templateName(c.Request.URL.Path)
		if !e.Exists(name) {
			c.String(http.StatusNotFound, "no template %s", name)
			return
		}
		data := gin.H{}
		for k, v := range c.Request.URL.Query() {
			data[k] = v[0]
		}
		blade.Respond(c, blade.NewResponse(name, data))
	})
	return r
}

// templateName maps /pages/home to pages.home and / to index.
func templateName(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "index"
	}
	return strings.ReplaceAll(path, "/", ".")
}
