package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
	"github.com/fyrsmithlabs/taskmaster/internal/taskstore"
)

// AddTaskRequest is the request body for POST /api/tasks.
type AddTaskRequest struct {
	Description string `json:"description"`
}

// RouteRequest is the request body for POST /api/ai.
type RouteRequest struct {
	Text string `json:"text"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Tasks  int    `json:"tasks"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Tasks: s.store.Len()})
}

func (s *Server) handleListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.ListAll())
}

func (s *Server) handleAddTask(c echo.Context) error {
	var req AddTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	task, err := s.store.Append(req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) handleCompleteTask(c echo.Context) error {
	return s.mutateTask(c, s.store.MarkComplete)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	return s.mutateTask(c, s.store.Remove)
}

func (s *Server) mutateTask(c echo.Context, op func(int) (taskstore.Task, error)) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := op(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) handleRoute(c echo.Context) error {
	var req RouteRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	res, err := s.router.Route(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// taskID parses the :id path segment. A segment that is not an integer names
// no task.
func taskID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperr.NotFound("task not found")
	}
	return id, nil
}
