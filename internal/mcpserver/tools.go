package mcpserver

// 工具名称
const (
	ToolSummarizeDocument = "summarize_document"
	ToolChunkDocument     = "chunk_document"
	ToolSummarizeText     = "summarize_text"
	ToolSummarizeURL      = "summarize_url"
)

// 响应状态
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SummarizeDocumentRequest summarize_document的输入
type SummarizeDocumentRequest struct {
	UserID      string `json:"user_id"`
	Key         string `json:"key"`                    // 已存储文件的存储键
	FileName    string `json:"file_name,omitempty"`    // 原始文件名，用于判断文件类型
	DetailLevel string `json:"detail_level,omitempty"` // short、medium或detailed
}

// SummarizeTextRequest summarize_text的输入
type SummarizeTextRequest struct {
	Text        string `json:"text"`
	DetailLevel string `json:"detail_level,omitempty"`
}

// SummarizeURLRequest summarize_url的输入
type SummarizeURLRequest struct {
	UserID      string `json:"user_id"`
	URL         string `json:"url"`
	DetailLevel string `json:"detail_level,omitempty"`
}

// SummaryResponse 摘要类工具的输出
type SummaryResponse struct {
	Status     string   `json:"status"`
	Summary    string   `json:"summary,omitempty"`
	RecordID   uint     `json:"record_id,omitempty"`
	ChunkCount int      `json:"chunk_count,omitempty"`
	FromCache  bool     `json:"from_cache,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ChunkDocumentRequest chunk_document的输入
type ChunkDocumentRequest struct {
	UserID string `json:"user_id"`
	Key    string `json:"key"`
}

// ChunkDocumentResponse chunk_document的输出
type ChunkDocumentResponse struct {
	Status             string   `json:"status"`
	Chunks             []string `json:"chunks,omitempty"`
	TotalChunks        int      `json:"totalChunks"`
	OriginalTextLength int      `json:"originalTextLength"`
	AverageChunkSize   int      `json:"averageChunkSize"`
	Error              string   `json:"error,omitempty"`
}
