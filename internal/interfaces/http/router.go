package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Numbering *NumberingHandler
	Documents *DocumentHandler
	JWTSecret string
}

// Router registra las rutas de la API. Las operaciones destructivas de
// numeración (reset, repair, escritura de políticas) exigen rol admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	numbering := protected.Group("/numbering/:type")
	numbering.Post("/allocate", deps.Numbering.Allocate)
	numbering.Get("/preview", deps.Numbering.Preview)
	numbering.Get("/diagnose", deps.Numbering.Diagnose)
	numbering.Get("/policy", deps.Numbering.GetPolicy)

	admin := numbering.Group("/", RequireAdmin())
	admin.Post("/repair", deps.Numbering.Repair)
	admin.Post("/reset", deps.Numbering.Reset)
	admin.Put("/policy", deps.Numbering.PutPolicy)

	documents := protected.Group("/documents")
	documents.Post("/totals", deps.Documents.ComputeTotals)
}
