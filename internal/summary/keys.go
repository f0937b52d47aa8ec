package summary

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fyerfyer/doc-summary-system/internal/cache"
)

// DocumentKey 文档级摘要缓存键: llm:<identity>:<level>
func DocumentKey(identity string, level DetailLevel) string {
	return cache.GenerateCacheKey("llm", identity, string(level))
}

// ChunkKey 分块摘要缓存键，只由分块内容和详细程度决定
func ChunkKey(level DetailLevel, chunk string) string {
	sum := sha256.Sum256([]byte(chunk))
	return cache.GenerateCacheKey("summary:chunk", string(level), hex.EncodeToString(sum[:16]))
}
