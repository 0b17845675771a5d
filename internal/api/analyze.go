package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leoarenas/smarttasks/internal/model"
	"github.com/leoarenas/smarttasks/internal/store"
)

type analyzeResult struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"` // success / error
	Error  string `json:"error,omitempty"`
}

// handleAnalyzeTask 调用决策顾问分析单个任务，并写回决策字段。
//
// POST /api/tasks/:id/analyze
func (s *Server) handleAnalyzeTask(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	task, err := s.tasks.GetTask(ctx, userID, c.Param("id"))
	if err != nil {
		s.writeTaskError(c, "get task failed", err)
		return
	}

	updated, err := s.analyzeAndStore(ctx, userID, task)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// handleAnalyzeAll 依次分析当前用户的全部任务，单个失败不影响其他任务。
//
// POST /api/tasks/analyze-all
func (s *Server) handleAnalyzeAll(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	tasks, err := s.tasks.ListTasks(ctx, userID)
	if err != nil {
		s.logger.Error("list tasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
		return
	}

	results := make([]analyzeResult, 0, len(tasks))
	success := 0
	for i := range tasks {
		task := &tasks[i]
		if _, err := s.analyzeAndStore(ctx, userID, task); err != nil {
			results = append(results, analyzeResult{TaskID: task.ID, Status: "error", Error: err.Error()})
			continue
		}
		success++
		results = append(results, analyzeResult{TaskID: task.ID, Status: "success"})
	}

	s.logger.Info("bulk analysis finished",
		slog.String("user_id", userID),
		slog.Int("total", len(tasks)),
		slog.Int("success", success),
	)
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(tasks), "success": success})
}

// analyzeAndStore 分析并写回结果；顾问失败时任务保持不变。
func (s *Server) analyzeAndStore(ctx context.Context, userID string, task *model.Task) (*model.Task, error) {
	analysis, err := s.analyzer.Analyze(ctx, task)
	if err != nil {
		return nil, err
	}
	updated, err := s.tasks.UpdateTask(ctx, userID, task.ID, analysis.Fields(time.Now()))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("store analysis failed", slog.String("task_id", task.ID), slog.String("error", err.Error()))
		}
		return nil, err
	}
	return updated, nil
}
