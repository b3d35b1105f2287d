package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/echotwin/echotwin/internal/handler/chat"
	memoryHandler "github.com/echotwin/echotwin/internal/handler/memory"
	replicaHandler "github.com/echotwin/echotwin/internal/handler/replica"
	uploadHandler "github.com/echotwin/echotwin/internal/handler/upload"
	middlewarePkg "github.com/echotwin/echotwin/internal/middleware"
	"github.com/echotwin/echotwin/internal/model/archive"
	chatService "github.com/echotwin/echotwin/internal/service/chat"
	memoryService "github.com/echotwin/echotwin/internal/service/memory"
	replicaService "github.com/echotwin/echotwin/internal/service/replica"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(archives archive.Store, replicaSvc *replicaService.Service, chatSvc *chatService.Service, memorySvc *memoryService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	upload := uploadHandler.New(archives)
	replica := replicaHandler.New(replicaSvc)
	chat := chatHandler.New(chatSvc)
	memory := memoryHandler.New(memorySvc)

	r.Route("/api", func(api chi.Router) {
		upload.RegisterRoutes(api)
		replica.RegisterRoutes(api)
		chat.RegisterRoutes(api)
		memory.RegisterRoutes(api)
	})

	return r
}
