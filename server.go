// FILE: server.go
// Package main – HTTP ops/control API.
//
// The gin router exposes the engine surface operators use:
//   GET    /healthz                 – liveness
//   GET    /metrics                 – Prometheus exposition
//   GET    /workers                 – live worker snapshot
//   POST   /workers/:symbol         – spawn a worker (idempotent)
//   DELETE /workers/:symbol         – request a cooperative stop
//   GET    /budget                  – pool snapshot
//   POST   /budget/increase         – operator capital top-up {amount}
//   GET    /trades                  – trade ledger (JSON)
//   GET    /trades/export           – trade ledger (CSV download)

package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter builds the ops API around an engine.
func newRouter(e *Engine) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok\n")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/workers", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.ListWorkers())
	})

	r.POST("/workers/:symbol", func(c *gin.Context) {
		sym := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
		if sym == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "symbol required"})
			return
		}
		// The request context dies with this handler; the engine supplies
		// the worker's lifecycle context itself.
		e.TrySpawn(sym, SpawnParams{Source: "ops"})
		c.JSON(http.StatusAccepted, gin.H{"symbol": sym})
	})

	r.DELETE("/workers/:symbol", func(c *gin.Context) {
		sym := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
		if !e.RequestStop(sym) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no live worker for " + sym})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"symbol": sym, "stop_requested": true})
	})

	r.GET("/budget", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.BudgetInfo())
	})

	r.POST("/budget/increase", func(c *gin.Context) {
		var body struct {
			Amount float64 `json:"amount" binding:"required,gt=0"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, e.IncreaseBudget(body.Amount))
	})

	r.GET("/trades", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.Trades().Snapshot())
	})

	r.GET("/trades/export", func(c *gin.Context) {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="trades.csv"`)
		if err := e.Trades().WriteCSV(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	})

	return r
}
