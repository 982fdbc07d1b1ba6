package contact

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	contactsvc "github.com/alanyang/prodline/internal/service/contact"
	"github.com/alanyang/prodline/internal/transport/httperr"
)

func Register(rg *gin.RouterGroup, svc *contactsvc.Service) {
	rg.GET("/:actorId", getHandle(svc))
	rg.PUT("/:actorId", setHandle(svc))
}

type setHandleReq struct {
	Handle string `json:"handle" binding:"required"`
}

func setHandle(svc *contactsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := uuid.Parse(c.Param("actorId"))
		if err != nil {
			httperr.BadRequest(c, "invalid actor id")
			return
		}
		var req setHandleReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		handle, err := svc.SetHandle(c.Request.Context(), actor, req.Handle)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor_id": actor, "handle": handle})
	}
}

func getHandle(svc *contactsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := uuid.Parse(c.Param("actorId"))
		if err != nil {
			httperr.BadRequest(c, "invalid actor id")
			return
		}
		handle, err := svc.HandleFor(c.Request.Context(), actor)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		if handle == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "no handle registered"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actor_id": actor, "handle": handle})
	}
}
