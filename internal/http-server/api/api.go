package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"aprspass/internal/config"
	"aprspass/internal/http-server/handlers/admreq"
	"aprspass/internal/http-server/handlers/errors"
	"aprspass/internal/http-server/handlers/request"
	"aprspass/internal/http-server/middleware/authenticate"
	"aprspass/internal/http-server/middleware/timeout"
	"aprspass/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	request.Core
	admreq.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Post("/request", request.Submit(log, handler))
		rootApi.Route("/admin", func(adm chi.Router) {
			adm.Use(authenticate.New(log, handler))
			adm.Route("/requests", func(req chi.Router) {
				req.Get("/", admreq.List(log, handler))
				req.Get("/{id}", admreq.Get(log, handler))
				req.Post("/{id}/approve", admreq.Approve(log, handler))
				req.Post("/{id}/deny", admreq.Deny(log, handler))
				req.Post("/{id}/resend", admreq.Resend(log, handler))
			})
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
