package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"cloudalbum/api"
	"cloudalbum/config"
	"cloudalbum/service"
	"cloudalbum/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	photoDB := &storage.MongoPhotoDB{Log: logger}
	if err := photoDB.Connect(cfg.MongoURI, cfg.MongoDatabase, cfg.PhotoCollection); err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer photoDB.Close()

	userDB := &storage.MongoUserDB{Log: logger}
	if err := userDB.Connect(cfg.MongoURI, cfg.MongoDatabase, cfg.UserCollection); err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer userDB.Close()

	localStorage := &storage.LocalPhotoStorage{
		Directory:       cfg.UploadDirectory,
		ThumbnailWidth:  cfg.ThumbnailWidth,
		ThumbnailHeight: cfg.ThumbnailHeight,
		Log:             logger,
	}

	photoService := &service.PhotoService{
		Db:      photoDB,
		Storage: localStorage,
		Log:     logger,
	}

	apiHandlers := &api.PhotoHandlers{
		Photos:         photoService,
		Users:          userDB,
		Log:            logger,
		SecretKey:      cfg.SecretKey,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	mux := http.NewServeMux()
	apiHandlers.ServeHTTP(mux)

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))

	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
