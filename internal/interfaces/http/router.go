package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/medstock-api/internal/application/auth"
	"github.com/jhoicas/medstock-api/internal/application/inventory"
	"github.com/jhoicas/medstock-api/pkg/jwt"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.MovementLedgerUseCase
	Wards     *inventory.WardStockUseCase
	Auth      *auth.AuthUseCase
	Log       *logger.Logger
	JWTSecret string
}

// Router registra las rutas de la API. Todo /api salvo el login requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	// Auth (público); debe registrarse antes del middleware
	ah := NewAuthHandler(deps.Auth, deps.Log)
	app.Post("/api/auth/login", ah.Login)

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	pharmacy := RequireRole(jwt.RoleAdmin, jwt.RolePharmacy)
	ward := RequireRole(jwt.RoleAdmin, jwt.RolePharmacy, jwt.RoleWard)
	admin := RequireRole(jwt.RoleAdmin)

	users := api.Group("/auth/users", admin)
	users.Post("/", ah.Register)
	users.Get("/", ah.ListUsers)
	users.Put("/:id/status", ah.UpdateStatus)

	// Almacén central
	stock := api.Group("/stock")
	sh := NewStockHandler(deps.Ledger, deps.Log)
	stock.Post("/movements", pharmacy, sh.RecordMovements)
	stock.Post("/charges", pharmacy, sh.Charge)
	stock.Post("/discharges", pharmacy, sh.Discharge)
	stock.Get("/movements", sh.Search)
	stock.Get("/movements/last-date", sh.LastDate)
	stock.Get("/movements/ref/:ref_no", sh.ListByRefNo)
	stock.Get("/movements/ward/:ward", sh.ListByWard)
	stock.Delete("/movements/:code", pharmacy, sh.DeleteMovement)
	stock.Get("/lots/:id", sh.Lot)
	stock.Get("/lots/:id/movements", sh.LotMovements)
	stock.Get("/medicals/:medical/lots", sh.Lots)
	stock.Get("/medicals/:medical/valuation", sh.Valuation)
	stock.Get("/medicals/:medical/balances", sh.Balances)
	stock.Get("/medicals/:medical/balance", sh.BalanceAt)
	stock.Post("/medicals/:medical/recompute", admin, sh.Recompute)
	stock.Delete("/medicals/:medical/last-movement", admin, sh.DeleteLastMovement)

	// Salas
	wards := api.Group("/wards")
	wh := NewWardHandler(deps.Wards, deps.Log)
	wards.Post("/transfers", ward, wh.Transfer)
	wards.Put("/movements/:code", ward, wh.Update)
	wards.Delete("/movements/:code", ward, wh.Delete)
	wards.Get("/patients/:patient/movements", wh.PatientMovements)
	wards.Post("/:ward/movements", ward, wh.NewMovements)
	wards.Get("/:ward/movements", wh.Movements)
	wards.Get("/:ward/medicals", wh.Medicals)
	wards.Get("/:ward/medicals/:medical/quantity", wh.Quantity)
}
