package store

import (
	"context"
	"fmt"

	"github.com/leoarenas/smarttasks/internal/model"
)

// ListTasks 按创建时间升序返回用户的任务。
func (s *Store) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask 插入任务，调用方必须设置 task.UserID。
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", translate(err))
	}
	return nil
}

// GetTask 仅在任务属于 userID 时返回。
func (s *Store) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// UpdateTask 按列名更新用户的任务并返回最新记录。
func (s *Store) UpdateTask(ctx context.Context, userID, id string, fields map[string]any) (*model.Task, error) {
	task, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return task, nil
	}
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, userID, id)
}

// DeleteTask 删除用户的任务。
func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
