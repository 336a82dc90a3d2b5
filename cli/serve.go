package cli

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/spf13/cobra"

	"github.com/1rvyn/story-builder/middleware"
	"github.com/1rvyn/story-builder/routes"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor API and the player page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), app)
		},
	}
}

// NewServer builds the fiber app with every route mounted.
func NewServer(app *App) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:      "story-builder",
		ErrorHandler: middleware.ErrorHandler,
		Views:        html.New(app.Config.ViewsDir, ".html"),
	})
	server.Use(recover.New())
	server.Use(logger.New())

	h := &routes.Handler{
		Stories: app.Stories,
		Catalog: app.Catalog,
		Editors: app.Editors,
		Players: app.Players,
		Audio:   app.Audio,
	}
	h.Register(server)
	return server
}

// serve listens until ctx is cancelled, then shuts down and saves every
// open editing session.
func serve(ctx context.Context, app *App) error {
	server := NewServer(app)
	addr := app.Config.Addr()

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", addr)
		errc <- server.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	return app.Editors.CloseAll(shutdownCtx)
}
