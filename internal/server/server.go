package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/qolda/qolda-backend/internal/handler"
	appmw "github.com/qolda/qolda-backend/internal/middleware"
	"github.com/qolda/qolda-backend/internal/service"
	"github.com/qolda/qolda-backend/internal/storage"
	"github.com/qolda/qolda-backend/internal/store"
)

type Server struct {
	e     *echo.Echo
	st    store.Store
	sha   string
	build string
}

// New wires the HTTP surface. authMw may be nil when running against the
// in-memory store; routes then read the uid from the X-Debug-UID header so
// local clients can still exercise the API.
func New(st store.Store, uploader storage.Uploader, authMw *appmw.AuthMiddleware, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	chatHandler := handler.NewChatHandler(st)

	listingSvc := service.NewListingService(st.Listings())
	listingHandler := handler.NewListingHandler(listingSvc)

	profileSvc := service.NewProfileService(st.Users())
	profileHandler := handler.NewProfileHandler(profileSvc, st.Users())

	categoryHandler := handler.NewCategoryHandler(st.Categories())
	statsHandler := handler.NewStatsHandler(service.NewStatsService(st.Listings(), st.Users()))
	uploadHandler := handler.NewUploadHandler(uploader)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	requireAuth := debugAuth
	if authMw != nil {
		requireAuth = authMw.RequireAuth
	}

	api := e.Group("/api")

	api.POST("/chats", chatHandler.Create, requireAuth)
	api.GET("/chats", chatHandler.List, requireAuth)
	api.GET("/chats/stream", chatHandler.StreamThreads, requireAuth)
	api.GET("/chats/:id", chatHandler.Get, requireAuth)
	api.GET("/chats/:id/messages", chatHandler.ListMessages, requireAuth)
	api.GET("/chats/:id/messages/stream", chatHandler.StreamMessages, requireAuth)
	api.POST("/chats/:id/messages", chatHandler.SendMessage, requireAuth)
	api.DELETE("/chats/:id", chatHandler.Delete, requireAuth)

	api.GET("/services", listingHandler.List)
	api.GET("/services/:id", listingHandler.Get)
	api.POST("/services", listingHandler.Create, requireAuth)
	api.DELETE("/services/:id", listingHandler.Delete, requireAuth)

	api.GET("/categories", categoryHandler.List)
	api.GET("/stats", statsHandler.Community)

	api.GET("/me/profile", profileHandler.GetMine, requireAuth)
	api.PUT("/me/profile", profileHandler.UpdateMine, requireAuth)
	api.GET("/users/:uid/public", profileHandler.GetPublic)

	api.POST("/uploads", uploadHandler.Create, requireAuth)

	return &Server{e: e, st: st, sha: sha, build: buildTime}
}

// debugAuth stands in for the Firebase middleware in local runs. It trusts
// the X-Debug-UID header, so it must never be wired when real auth is up.
func debugAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := c.Request().Header.Get("X-Debug-UID")
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized", "missing X-Debug-UID header"))
		}
		c.Set("uid", uid)
		return next(c)
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Echo() *echo.Echo {
	return s.e
}
