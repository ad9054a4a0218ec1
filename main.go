package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"evodata/agent"
	"evodata/config"
	"evodata/databases"
	"evodata/dispatcher"
	"evodata/executor"
	"evodata/intent"
	"evodata/router"
	"evodata/storage"
	"evodata/tools"
	"evodata/tts"
	"evodata/validator"
	"evodata/whatsapp"
	"evodata/whisper"
)

func main() {
	config.InitConfig()

	gin.SetMode(config.AppConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if err := databases.InitDB(); err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer func() {
		if err := databases.CloseDB(); err != nil {
			log.Printf("close db error: %v", err)
		}
	}()

	exportsDir := config.AppConfig.Files.ExportsDir
	store, err := storage.NewLocal(exportsDir, config.AppConfig.Files.PublicBaseURL)
	if err != nil {
		log.Fatalf("failed to init artifact storage: %v", err)
	}
	if days := config.AppConfig.Files.RetentionDays; days > 0 {
		if _, err := store.CleanupOlderThan(time.Duration(days) * 24 * time.Hour); err != nil {
			log.Printf("export cleanup error: %v", err)
		}
	}

	db, err := databases.GetDB()
	if err != nil {
		log.Fatalf("failed to get db handle: %v", err)
	}

	ctx := context.Background()
	exec := executor.NewFromConfig(db, validator.NewFromConfig())

	registry := tools.NewRegistry(
		tools.NewQueryTool(exec, config.AppConfig.Database.DBName),
		tools.NewChartTool(exec, store),
		tools.NewExcelTool(exec, store),
		tools.NewStatsTool(exec),
	)

	classifier, err := intent.NewLLMClassifier(ctx)
	if err != nil {
		log.Fatalf("failed to init classifier: %v", err)
	}
	planner, err := intent.NewSQLGenerator(ctx)
	if err != nil {
		log.Fatalf("failed to init sql generator: %v", err)
	}

	a := agent.New(classifier, planner, dispatcher.New(registry), whisper.NewClient(), whatsapp.NewClient(), tts.NewClient())
	router.RegisterRoutes(r, a, exportsDir)

	addr := config.AppConfig.GetServerAddr()
	log.Printf("[Main] listening addr=%s db=%s exports=%s", addr, config.AppConfig.Database.DBName, exportsDir)
	log.Fatal(r.Run(addr))
}
