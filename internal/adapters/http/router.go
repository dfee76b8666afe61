// Package http wires the gin router: the websocket endpoint plus the
// room CRUD API consumed by the frontend.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/studyhall/server/internal/adapters/socket"
	"github.com/studyhall/server/internal/config"
	"github.com/studyhall/server/internal/core"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ws *socket.Controller, rooms *RoomAPI, verifier core.TokenVerifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	api := r.Group("/api")

	// Token travels as a query parameter on the dial, so the ws
	// endpoint verifies it itself instead of using the middleware.
	api.GET("/ws", func(c *gin.Context) {
		ws.Handle(ctx, c)
	})

	authed := api.Group("/rooms", AuthRequired(verifier))
	authed.GET("/public", rooms.ListPublic)
	authed.GET("/current", rooms.Current)
	authed.POST("", rooms.Create)
	authed.POST("/join-code", rooms.JoinByCode)
	authed.POST("/leave", rooms.Leave)
	authed.POST("/:roomId/join", rooms.Join)
	authed.POST("/:roomId/close", rooms.Close)
	authed.GET("/:roomId", rooms.Details)
	authed.GET("/:roomId/members", rooms.Members)

	return r
}
