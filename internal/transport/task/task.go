package task

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domaintask "github.com/alanyang/prodline/internal/domain/task"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	tasksvc "github.com/alanyang/prodline/internal/service/task"
	"github.com/alanyang/prodline/internal/transport/httperr"
)

func Register(rg *gin.RouterGroup, svc *tasksvc.Service, pipelineSvc *pipelinesvc.Service) {
	rg.GET("/", listTasks(svc))
	rg.GET("/:id", getTask(svc))
	rg.POST("/:id/transition", applyTransition(pipelineSvc))
	rg.PUT("/:id/assignee", assignTask(pipelineSvc))
}

func listTasks(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domaintask.ListFilters

		if v := c.Query("project_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				httperr.BadRequest(c, "invalid project_id")
				return
			}
			filters.ProjectID = &id
		}
		if v := c.Query("assigned_to"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				httperr.BadRequest(c, "invalid assigned_to")
				return
			}
			filters.AssignedTo = &id
		}
		// status accepts a comma-separated list: ?status=in_progress,held
		if v := c.Query("status"); v != "" {
			for _, raw := range strings.Split(v, ",") {
				s, err := domaintask.ParseStatus(strings.TrimSpace(raw))
				if err != nil {
					httperr.BadRequest(c, err.Error())
					return
				}
				filters.Status = append(filters.Status, s)
			}
		}

		tasks, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		c.JSON(http.StatusOK, tasks)
	}
}

func getTask(svc *tasksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		t, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type transitionReq struct {
	Status  domaintask.Status `json:"status" binding:"required"`
	ActorID uuid.UUID         `json:"actor_id" binding:"required"`
}

func applyTransition(svc *pipelinesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req transitionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		res, err := svc.ApplyTransition(c.Request.Context(), id, req.Status, req.ActorID)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

type assignReq struct {
	// AssigneeID nil clears the assignment.
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

func assignTask(svc *pipelinesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req assignReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		t, err := svc.AssignTask(c.Request.Context(), id, req.AssigneeID)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
