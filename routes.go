package main

import (
	"net/http"
	"strings"

	"github.com/CodedInternet/gocrawler/comms"
	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full HTTP surface of the daemon.
func NewRouter(g *Gateway, conductor *comms.Conductor) chi.Router {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	protect := func(r chi.Router) {
		if ENV.DEBUG {
			return
		}
		r.Use(ValidateJWT)
	}
	if ENV.DEBUG {
		log.Warn("running in debug mode, authentication disabled")
	}

	//---
	// API routes
	//---
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", Login)

		r.Group(func(r chi.Router) {
			r.Use(ValidateJWT)
			r.Get("/refresh_token", JWTRefresh)
		})

		r.Route("/crawler", func(r chi.Router) {
			r.Use(CORS)
			r.Options("/*", Preflight)

			r.Group(func(r chi.Router) {
				protect(r)

				r.Post("/cmd", g.CrawlerCmd)
				r.Post("/stop", g.CrawlerStop)
				r.Post("/center", g.CrawlerCenter)
				r.Post("/all_off", g.CrawlerAllOff)
				r.Get("/status", g.CrawlerStatus)
				r.Get("/history", g.CrawlerHistory)
			})
		})
	})

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		protect(r)
		r.Get("/crawler", StreamHandler(conductor))
	})

	// add static base routes
	FileServer(r, "/", http.Dir(ENV.HTMLDIR))

	return r
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	fs := http.StripPrefix(path, http.FileServer(root))

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	})
}
