package router

import (
	"github.com/gin-gonic/gin"

	mdhandler "scanner_backend/internal/feature/marketdata/transport/handler"
	scanhandler "scanner_backend/internal/feature/scanner/transport/handler"
	screenhandler "scanner_backend/internal/feature/screener/transport/handler"
	"scanner_backend/internal/platform/http/handler"
)

func NewRouter(marketdata *mdhandler.MarketDataHandler, screener *screenhandler.ScreenerHandler,
	scanner *scanhandler.ScannerHandler, cacheBackend string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 導通確認用
	health := handler.NewHealth(cacheBackend)
	r.GET("/health", health)
	r.HEAD("/health", health)
	r.OPTIONS("/health", health)

	// マーケットデータ
	r.GET("/history", marketdata.GetHistory)
	r.POST("/quotes", marketdata.PostQuotes)

	// レガシースクリーナー
	r.POST("/screener", screener.PostScreener)

	// スキャナー
	scanner.RegisterRoutes(r.Group("/scan"))

	return r
}
