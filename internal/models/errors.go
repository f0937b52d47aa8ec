package models

import "errors"

var (
	// ErrUserExists 同名用户已存在
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")

	// ErrRecordNotFound 记录不存在
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidUser 用户字段不完整
	ErrInvalidUser = errors.New("first name and last name are required")
)
