package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leoarenas/smarttasks/internal/model"
)

// reportStats 的桶名沿用前端读取的西语键。
type reportStats struct {
	Total     int `json:"total"`
	Analyzed  int `json:"analyzed"`
	Keep      int `json:"conservar"`
	Delegate  int `json:"delegar"`
	Automate  int `json:"automatizar"`
	Eliminate int `json:"eliminar"`
}

// buildReport 按决策统计任务数，无法识别的决策只计入 analyzed。
func buildReport(tasks []model.Task) reportStats {
	stats := reportStats{Total: len(tasks)}
	for i := range tasks {
		if !tasks[i].Analyzed() {
			continue
		}
		stats.Analyzed++
		decision, ok := model.ParseDecision(*tasks[i].Decision)
		if !ok {
			continue
		}
		switch decision {
		case model.DecisionKeep:
			stats.Keep++
		case model.DecisionDelegate:
			stats.Delegate++
		case model.DecisionAutomate:
			stats.Automate++
		case model.DecisionEliminate:
			stats.Eliminate++
		}
	}
	return stats
}

// handleReport 返回当前用户任务的决策统计。
//
// GET /api/report
func (s *Server) handleReport(c *gin.Context) {
	tasks, err := s.tasks.ListTasks(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.logger.Error("list tasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "build report failed"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"stats": buildReport(tasks), "tasks": tasks})
}
