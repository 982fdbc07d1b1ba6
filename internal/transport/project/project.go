package project

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	"github.com/alanyang/prodline/internal/transport/httperr"
)

func Register(rg *gin.RouterGroup, svc *projectsvc.Service, pipelineSvc *pipelinesvc.Service) {
	rg.POST("/", createProject(svc))
	rg.GET("/", listProjects(svc))
	rg.GET("/:id", getProject(svc))
	rg.GET("/:id/status", getProjectStatus(svc))
	rg.POST("/:id/pipeline", createPipeline(pipelineSvc))
	rg.DELETE("/:id", deleteProject(svc))
}

type createProjectReq struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	CreatedBy   *uuid.UUID `json:"created_by"`
}

func createProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProjectReq
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, err.Error())
			return
		}

		p, err := svc.Create(c.Request.Context(), req.Title, req.Description, req.CreatedBy)
		if err != nil {
			if p.ID != uuid.Nil {
				// Project persisted but its pipeline did not; report both.
				c.JSON(httperr.Status(err), gin.H{"error": err.Error(), "project": p})
				return
			}
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func listProjects(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filters domainproject.ListFilters

		if v := c.Query("status"); v != "" {
			s, err := domainproject.ParseStatus(v)
			if err != nil {
				httperr.BadRequest(c, err.Error())
				return
			}
			filters.Status = &s
		}
		if v := c.Query("created_by"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				httperr.BadRequest(c, "invalid created_by")
				return
			}
			filters.CreatedBy = &id
		}

		projects, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		if projects == nil {
			projects = []domainproject.Project{}
		}
		c.JSON(http.StatusOK, projects)
	}
}

func getProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		p, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func getProjectStatus(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		r, err := svc.GetProjectStatus(c.Request.Context(), id)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func createPipeline(svc *pipelinesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		tasks, err := svc.CreatePipeline(c.Request.Context(), id)
		if err != nil {
			httperr.Respond(c, err)
			return
		}
		if tasks == nil {
			tasks = []domaintask.Task{}
		}
		c.JSON(http.StatusCreated, tasks)
	}
}

func deleteProject(svc *projectsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			httperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
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
