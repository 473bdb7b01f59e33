package logapi

import (
	"net/http"

	"github.com/dalemusser/stratalog/internal/app/system/apicors"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the log API endpoints.
//
// When mounted at /v1:
//   - PUT /v1/log/       - open to any client
//   - GET /v1/getLog/    - behind requireLogin
//   - GET /v1/findLogs/  - behind requireLogin
//
// CORS is permissive; every path also answers without its trailing slash.
func Routes(h *Handler, requireLogin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	r.Put("/log", h.Ingest)
	r.Put("/log/", h.Ingest)

	r.Group(func(pr chi.Router) {
		pr.Use(requireLogin)
		pr.Get("/getLog", h.GetLog)
		pr.Get("/getLog/", h.GetLog)
		pr.Get("/findLogs", h.FindLogs)
		pr.Get("/findLogs/", h.FindLogs)
	})

	return r
}
