package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户模型
// 名和姓的组合唯一
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`                         // 用户ID，UUID
	FirstName string    `gorm:"not null;uniqueIndex:idx_user_name" json:"first_name"` // 名
	LastName  string    `gorm:"not null;uniqueIndex:idx_user_name" json:"last_name"`  // 姓
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate GORM的钩子函数，创建前生成ID并设置时间
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新前设置更新时间
func (u *User) BeforeUpdate(tx *gorm.DB) (err error) {
	u.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (User) TableName() string {
	return "users"
}
