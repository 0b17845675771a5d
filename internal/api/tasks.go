package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leoarenas/smarttasks/internal/model"
	"github.com/leoarenas/smarttasks/internal/store"
)

// createTaskRequest 创建任务的请求参数。
type createTaskRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	Frequency       string  `json:"frequency" binding:"required"`
	Duration        string  `json:"duration" binding:"required"`
	Impact          *int    `json:"impact" binding:"omitempty,min=1,max=5"`
	Risk            *int    `json:"risk" binding:"omitempty,min=1,max=5"`
	Effort          *int    `json:"effort" binding:"omitempty,min=1,max=5"`
	Confidentiality *string `json:"confidentiality"`
}

// updateTaskRequest 更新任务的请求参数，nil 字段保持不变。
type updateTaskRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Frequency       *string `json:"frequency"`
	Duration        *string `json:"duration"`
	Impact          *int    `json:"impact" binding:"omitempty,min=1,max=5"`
	Risk            *int    `json:"risk" binding:"omitempty,min=1,max=5"`
	Effort          *int    `json:"effort" binding:"omitempty,min=1,max=5"`
	Confidentiality *string `json:"confidentiality"`
}

// fields 返回需要更新的列，不包含决策字段。
func (r updateTaskRequest) fields() (map[string]any, error) {
	out := map[string]any{}
	text := []struct {
		col string
		val *string
	}{
		{"name", r.Name},
		{"description", r.Description},
		{"frequency", r.Frequency},
		{"duration", r.Duration},
	}
	for _, f := range text {
		if f.val == nil {
			continue
		}
		v := strings.TrimSpace(*f.val)
		if v == "" {
			return nil, errors.New(f.col + " cannot be empty")
		}
		out[f.col] = v
	}
	if r.Impact != nil {
		out["impact"] = *r.Impact
	}
	if r.Risk != nil {
		out["risk"] = *r.Risk
	}
	if r.Effort != nil {
		out["effort"] = *r.Effort
	}
	if r.Confidentiality != nil {
		conf, ok := model.ParseConfidentiality(*r.Confidentiality)
		if !ok {
			return nil, errors.New("confidentiality must be Low, Medium or High")
		}
		out["confidentiality"] = conf
	}
	return out, nil
}

// handleListTasks 返回当前用户的任务列表。
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.tasks.ListTasks(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.logger.Error("list tasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// handleCreateTask 创建任务。
//
// POST /api/tasks
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := model.Task{
		UserID:      currentUserID(c),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Frequency:   strings.TrimSpace(req.Frequency),
		Duration:    strings.TrimSpace(req.Duration),
		Impact:      req.Impact,
		Risk:        req.Risk,
		Effort:      req.Effort,
	}
	if task.Name == "" || task.Description == "" || task.Frequency == "" || task.Duration == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, description, frequency and duration are required"})
		return
	}
	if req.Confidentiality != nil && strings.TrimSpace(*req.Confidentiality) != "" {
		conf, ok := model.ParseConfidentiality(*req.Confidentiality)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "confidentiality must be Low, Medium or High"})
			return
		}
		task.Confidentiality = &conf
	}

	if err := s.tasks.CreateTask(c.Request.Context(), &task); err != nil {
		s.logger.Error("create task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create task failed"})
		return
	}
	s.logger.Info("task created", slog.String("task_id", task.ID), slog.String("user_id", task.UserID))
	c.JSON(http.StatusCreated, task)
}

// handleGetTask 返回单个任务。
func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.tasks.GetTask(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.writeTaskError(c, "get task failed", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleUpdateTask 部分更新任务。
//
// PUT /api/tasks/:id
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields, err := req.fields()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	task, err := s.tasks.UpdateTask(c.Request.Context(), currentUserID(c), c.Param("id"), fields)
	if err != nil {
		s.writeTaskError(c, "update task failed", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleDeleteTask 删除任务。
func (s *Server) handleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	if err := s.tasks.DeleteTask(c.Request.Context(), currentUserID(c), id); err != nil {
		s.writeTaskError(c, "delete task failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted", "deleted": id})
}

func (s *Server) writeTaskError(c *gin.Context, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	s.logger.Error(msg, slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
