package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/1rvyn/story-builder/audio"
	"github.com/1rvyn/story-builder/catalog"
	"github.com/1rvyn/story-builder/config"
	"github.com/1rvyn/story-builder/database"
	"github.com/1rvyn/story-builder/editor"
	"github.com/1rvyn/story-builder/playback"
	"github.com/1rvyn/story-builder/store"
)

// App holds the collaborators every command works against.
type App struct {
	Config config.Config
	// DB is nil when stories are kept in memory.
	DB      *gorm.DB
	Stories store.Store
	Catalog catalog.Catalog
	Editors *editor.Registry
	Players *playback.Sessions
	Audio   *audio.Recorder
	Printer *Printer
	In      io.Reader
}

// NewApp wires the collaborators described by cfg. Without DATABASE_URL
// stories and the catalog live in memory; without R2 credentials so do
// recordings.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	seed, err := catalog.LoadSeed(cfg.CatalogSeed)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Printer: NewPrinter(),
		In:      os.Stdin,
	}

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		n, err := catalog.SeedDatabase(ctx, db, seed)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			log.Printf("Seeded %d catalog assets", n)
		}
		app.DB = db
		app.Stories = store.NewGorm(db)
		app.Catalog = catalog.NewGorm(db)
	} else {
		log.Println("DATABASE_URL not set, stories are kept in memory")
		app.Stories = store.NewMemory()
		app.Catalog = catalog.NewMemory(seed)
	}

	var blobs audio.BlobStore = audio.NewMemoryBlobs()
	if cfg.R2Enabled() {
		r2, err := audio.NewR2(ctx, audio.R2Config{
			AccessKey: cfg.AccessKeyID,
			SecretKey: cfg.SecretAccessKey,
			Endpoint:  cfg.R2Endpoint,
			Bucket:    cfg.R2Bucket,
			PublicURL: cfg.R2PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to R2: %w", err)
		}
		blobs = r2
	}
	recorderOpts := []audio.RecorderOption{audio.WithProber(audio.FFProbe{Path: cfg.FFProbePath})}
	if app.DB != nil {
		recorderOpts = append(recorderOpts, audio.WithClipIndex(audio.NewGormClips(app.DB)))
	}
	app.Audio = audio.NewRecorder(blobs, recorderOpts...)

	app.Editors = editor.NewRegistry(app.Stories,
		editor.WithIdleTimeout(cfg.SessionIdleTimeout),
		editor.WithSessionOptions(
			editor.WithSaveDelay(cfg.AutosaveDelay),
			editor.WithAnimationDuration(cfg.AnimationDuration),
		),
	)
	app.Players = playback.NewSessions(
		playback.WithIdleTimeout(cfg.SessionIdleTimeout),
		playback.WithPlayerOptions(playback.WithRevealDelay(cfg.DecisionRevealDelay)),
	)
	return app, nil
}

// Close flushes open editing sessions and releases the database.
func (a *App) Close(ctx context.Context) error {
	err := a.Editors.CloseAll(ctx)
	if a.DB != nil {
		if sqlDB, dbErr := a.DB.DB(); dbErr == nil {
			sqlDB.Close()
		}
	}
	return err
}
