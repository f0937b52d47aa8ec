package summary

import (
	"fmt"
	"strings"
)

// Limits 某一详细程度下的字数预算，单位统一为词
type Limits struct {
	FinalMaxWords int // 最终摘要的最大词数
	ChunkMaxWords int // 静态表中每个分块摘要的词数
}

// Policy 详细程度到字数预算的映射
type Policy struct {
	table         map[DetailLevel]Limits
	minChunkWords int
}

// 分块摘要的最小词数
const defaultMinChunkWords = 50

var defaultLimits = map[DetailLevel]Limits{
	Short:    {FinalMaxWords: 100, ChunkMaxWords: 50},
	Medium:   {FinalMaxWords: 250, ChunkMaxWords: 150},
	Detailed: {FinalMaxWords: 500, ChunkMaxWords: 300},
}

// DefaultPolicy 返回默认预算表
func DefaultPolicy() *Policy {
	return NewPolicy(nil)
}

// NewPolicy 在默认预算表上应用覆盖项，非正数的字段保持默认值
func NewPolicy(overrides map[DetailLevel]Limits) *Policy {
	table := make(map[DetailLevel]Limits, len(defaultLimits))
	for level, limits := range defaultLimits {
		table[level] = limits
	}
	for level, o := range overrides {
		if !level.Valid() {
			continue
		}
		limits := table[level]
		if o.FinalMaxWords > 0 {
			limits.FinalMaxWords = o.FinalMaxWords
		}
		if o.ChunkMaxWords > 0 {
			limits.ChunkMaxWords = o.ChunkMaxWords
		}
		table[level] = limits
	}
	return &Policy{table: table, minChunkWords: defaultMinChunkWords}
}

// ParsePolicy 从配置表创建预算表，键不区分大小写
// 未知的详细程度返回ErrInvalidDetailLevel
func ParsePolicy(table map[string]Limits) (*Policy, error) {
	overrides := make(map[DetailLevel]Limits, len(table))
	for name, limits := range table {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDetailLevel, name)
		}
		level, err := ParseDetailLevel(name)
		if err != nil {
			return nil, err
		}
		overrides[level] = limits
	}
	return NewPolicy(overrides), nil
}

// LimitsFor 返回详细程度对应的预算
func (p *Policy) LimitsFor(level DetailLevel) (Limits, error) {
	limits, ok := p.table[level]
	if !ok {
		return Limits{}, fmt.Errorf("%w: %q", ErrInvalidDetailLevel, level)
	}
	return limits, nil
}

// ChunkWordsFor 分块路径下每个分块摘要的词数
// 所有分块摘要合计不超过合并步骤的输入预算，且不低于最小词数
func (p *Policy) ChunkWordsFor(reduceBudgetWords, chunkCount int) int {
	if chunkCount <= 0 {
		return p.minChunkWords
	}
	words := reduceBudgetWords / chunkCount
	if words < p.minChunkWords {
		return p.minChunkWords
	}
	return words
}
