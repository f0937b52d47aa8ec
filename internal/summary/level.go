package summary

import (
	"errors"
	"fmt"
	"strings"
)

// DetailLevel 摘要详细程度
type DetailLevel string

const (
	Short    DetailLevel = "short"
	Medium   DetailLevel = "medium"
	Detailed DetailLevel = "detailed"
)

// DefaultDetailLevel 请求未指定时使用的详细程度
const DefaultDetailLevel = Medium

// ErrInvalidDetailLevel 未知的详细程度
var ErrInvalidDetailLevel = errors.New("invalid detail level")

// Levels 返回全部合法的详细程度
func Levels() []DetailLevel {
	return []DetailLevel{Short, Medium, Detailed}
}

// Valid 判断是否为合法的详细程度
func (l DetailLevel) Valid() bool {
	switch l {
	case Short, Medium, Detailed:
		return true
	}
	return false
}

// ParseDetailLevel 解析详细程度，空字符串返回默认值
func ParseDetailLevel(s string) (DetailLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultDetailLevel, nil
	}
	level := DetailLevel(s)
	if !level.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDetailLevel, s)
	}
	return level, nil
}
