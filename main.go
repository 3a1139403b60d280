package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/cache"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/database"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/env"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/ratelimit"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())
	ratelimit.Setup(cache.GetClient())

	app := fiber.New(fiber.Config{
		BodyLimit: 26 * 1024 * 1024, // upload cap plus multipart overhead
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
