// Package http собирает HTTP сервер тестового бэкенда.
package http

import (
	"github.com/gofiber/fiber/v3"

	"fitsync/internal/mockapi/app/http/handlers"
	"fitsync/internal/mockapi/app/http/middleware"
	"fitsync/internal/mockapi/ports/services"
)

// SetupRouter настраивает маршрутизацию HTTP сервера.
func SetupRouter(app *fiber.App, auth services.AuthUseCase, fitness services.FitnessUseCase, tokens services.TokenService) {
	authHandler := handlers.NewAuthHandler(auth)
	fitnessHandler := handlers.NewFitnessHandler(fitness)

	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", handlers.Health)

	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.Refresh)

	// Защищенные маршруты.
	requireAuth := middleware.NewAuthMiddleware(tokens)
	apiV1.Get("/subscription/status", requireAuth, fitnessHandler.Subscription)
	apiV1.Get("/workouts", requireAuth, fitnessHandler.ListWorkouts)
	apiV1.Post("/workouts", requireAuth, fitnessHandler.CreateWorkout)
	apiV1.Delete("/workouts/:id", requireAuth, fitnessHandler.DeleteWorkout)

	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
