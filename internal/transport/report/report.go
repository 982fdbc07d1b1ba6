package report

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reportsvc "github.com/alanyang/prodline/internal/service/report"
	"github.com/alanyang/prodline/internal/transport/httperr"
)

func Register(rg *gin.RouterGroup, svc *reportsvc.Service) {
	rg.GET("/completion/:actorId", completionRate(svc))
	rg.GET("/dashboard", dashboard(svc))
	rg.GET("/leaderboard", leaderboard(svc))
}

func completionRate(svc *reportsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := uuid.Parse(c.Param("actorId"))
		if err != nil {
			httperr.BadRequest(c, "invalid actor id")
			return
		}
		stats, err := svc.CompletionRate(c.Request.Context(), actor)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func dashboard(svc *reportsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func leaderboard(svc *reportsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		board, err := svc.Leaderboard(c.Request.Context())
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		if board == nil {
			board = []reportsvc.ActorStats{}
		}
		c.JSON(http.StatusOK, board)
	}
}
