package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	auth "github.com/goliatone/go-leave-auth"
	"github.com/goliatone/go-leave-auth/config"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// NewHTTPServer builds the router server with the auth routes mounted.
func NewHTTPServer(cfg *config.Config, auther *auth.Auther, logger auth.Logger) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "authd",
			ErrorHandler:          fallbackErrorHandler(logger),
			ReadTimeout:           cfg.Server.ReadTimeout,
			WriteTimeout:          cfg.Server.WriteTimeout,
			DisableStartupMessage: true,
		})

		app.Use(recover.New())
		app.Use(requestid.New(requestid.Config{
			Generator: uuid.NewString,
		}))
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.Server.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,OPTIONS",
		}))

		return app
	})

	r := srv.Router()

	r.Get("/healthz", func(ctx router.Context) error {
		return ctx.Status(http.StatusNoContent).SendString("")
	}).SetName("healthz")

	errHandler := auth.NewErrorHandler(logger)
	guard := auth.NewRouteGuard(cfg, auther.TokenService(), errHandler)
	auth.RegisterAuthRoutes(r, guard,
		auth.WithControllerAuther(auther),
		auth.WithControllerLogger(logger),
		auth.WithControllerErrorHandler(errHandler),
		auth.WithControllerContextKey(cfg.GetContextKey()),
	)

	return srv
}

// fallbackErrorHandler renders errors that never reached a route, such as
// unknown paths or recovered panics, in the auth.Response envelope.
func fallbackErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		message := "An unexpected server error occurred"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		} else {
			logger.Error("request %s %s failed: %v", c.Method(), c.Path(), err)
		}

		return c.Status(status).JSON(auth.Response{
			Message: message,
			Success: false,
		})
	}
}
