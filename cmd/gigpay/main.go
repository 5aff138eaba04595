package main

import (
	"fmt"
	"os"

	"github.com/aslanbek/gigpay/internal/auth"
	"github.com/aslanbek/gigpay/internal/config"
	"github.com/aslanbek/gigpay/internal/db"
	"github.com/aslanbek/gigpay/internal/excel"
	httphandler "github.com/aslanbek/gigpay/internal/http"
	"github.com/aslanbek/gigpay/internal/http/middleware"
	"github.com/aslanbek/gigpay/internal/logger"
	"github.com/aslanbek/gigpay/internal/pdf"
	"github.com/aslanbek/gigpay/internal/repository"
	"github.com/aslanbek/gigpay/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	marketRepo := repository.NewMarketplaceRepository(database)
	reportRepo := repository.NewReportRepository(database)

	queryService := service.NewQueryService(marketRepo)
	settlementService := service.NewSettlementService(marketRepo, pdf.NewGenerator(), cfg)
	reportService := service.NewReportService(reportRepo, excel.NewGenerator(), cfg)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(queryService, settlementService, reportService, log)
	authMiddleware := middleware.Auth(tokenParser, marketRepo)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting gigpay service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
