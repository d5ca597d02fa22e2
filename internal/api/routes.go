package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Get("/me", handler.AuthRequired, handler.CurrentUser)

	medicines := api.Group("/medicines", handler.AuthRequired)
	medicines.Get("", handler.ListMedicines)
	medicines.Post("", handler.CreateMedicine)
	medicines.Get("/:id", handler.GetMedicine)
	medicines.Put("/:id", handler.UpdateMedicine)
	medicines.Delete("/:id", handler.DeleteMedicine)

	schedules := api.Group("/schedules", handler.AuthRequired)
	schedules.Get("", handler.ListSchedules)
	schedules.Post("", handler.CreateSchedule)
	schedules.Get("/medicine/:id", handler.ListSchedulesByMedicine)
	schedules.Put("/:id", handler.UpdateSchedule)
	schedules.Delete("/:id", handler.DeleteSchedule)

	intakes := api.Group("/intakes", handler.AuthRequired)
	intakes.Get("", handler.ListIntakes)
	intakes.Post("", handler.RecordIntake)
	intakes.Get("/today", handler.ListTodayIntakes)
	intakes.Get("/history", handler.IntakeHistory)
	intakes.Delete("/:id", handler.DeleteIntake)

	notifications := api.Group("/notifications", handler.AuthRequired)
	notifications.Get("", handler.ListNotifications)
	notifications.Post("", handler.CreateNotification)
	notifications.Delete("/clear", handler.ClearNotifications)

	if handler.adminToken != "" {
		admin := api.Group("/admin", handler.AdminOnly)
		admin.Post("/cleanup", handler.RunCleanup)
	}
}
