package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/leoarenas/smarttasks/internal/model"
)

// CreateUser 插入用户，邮箱统一转为小写。
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// UserByEmail 按邮箱查找用户，不区分大小写。
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserByID 按 ID 查找用户。
func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CountUsers 返回已注册用户数。
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// MarkUserVerified 保存密码哈希并标记为已验证。
func (s *Store) MarkUserVerified(ctx context.Context, id, passwordHash string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash": passwordHash,
		"is_verified":   true,
	})
	if res.Error != nil {
		return fmt.Errorf("verify user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateToken 插入验证令牌。
func (s *Store) CreateToken(ctx context.Context, token *model.VerificationToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("create token: %w", translate(err))
	}
	return nil
}

// TokenByValue 按令牌值查找记录。
func (s *Store) TokenByValue(ctx context.Context, token string) (*model.VerificationToken, error) {
	var row model.VerificationToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// DeleteToken 按 ID 删除令牌。
func (s *Store) DeleteToken(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.VerificationToken{}).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
