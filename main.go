package main

import (
	"flag"
	"time"

	"go.uber.org/zap"

	"microblog/cache"
	"microblog/crud"
	"microblog/http"
	"microblog/storage"
)

// main is the app's entry point.
func main() {
	// The "-prod" flag means we're running in production: a .config.json
	// file must be provided before the application starts.
	productionBool := flag.Bool("prod", false,
		"Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	config := LoadConfig(*productionBool)

	logger := newLogger(config.Env)
	defer logger.Sync()
	sugar := logger.Sugar()
	// errs.LogError and friends log through the globals.
	zap.ReplaceGlobals(logger)

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.HMACKey, config.Pepper),
		crud.WithGroup(),
		crud.WithPost(config.PostsPerPage),
		crud.WithComment(),
		crud.WithFollow(),
	)
	must(err)

	images := storage.NewImageService("")

	// The home page cache. It degrades to in-memory mode when Redis is away.
	pageCache := cache.New(config.Redis.Addr, time.Duration(config.CacheSeconds)*time.Second, sugar)
	defer pageCache.Close()

	// Set up a webserver and serve the app.
	server := http.NewServer(
		config.IsProd(),
		config.CSRFKey,
		sugar,
		pageCache,
		services.User,
		services.Group,
		services.Post,
		services.Comment,
		services.Follow,
		images,
	)
	must(server.Run(config.Port))
}

// newLogger builds the zap logger for the given environment.
func newLogger(env string) *zap.Logger {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	must(err)
	return logger
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
