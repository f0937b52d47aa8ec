package extraction

import (
	"path/filepath"
	"strings"

	"github.com/fyerfyer/doc-summary-system/internal/document"
)

// MediaKind 上传文件的大类，决定使用哪个提取器
type MediaKind string

const (
	MediaDocument MediaKind = "document" // PDF，走OCR
	MediaImage    MediaKind = "image"    // 图片，走OCR
	MediaAudio    MediaKind = "audio"    // 音频，走转写
	MediaVideo    MediaKind = "video"    // 视频，走转写
	MediaText     MediaKind = "text"     // 文本、Markdown和Office文档，本地解析
	MediaUnknown  MediaKind = "unknown"
)

var mediaKinds = map[string]MediaKind{
	".pdf":      MediaDocument,
	".png":      MediaImage,
	".jpg":      MediaImage,
	".jpeg":     MediaImage,
	".tif":      MediaImage,
	".tiff":     MediaImage,
	".mp3":      MediaAudio,
	".wav":      MediaAudio,
	".flac":     MediaAudio,
	".m4a":      MediaAudio,
	".ogg":      MediaAudio,
	".mp4":      MediaVideo,
	".webm":     MediaVideo,
	".txt":      MediaText,
	".md":       MediaText,
	".markdown": MediaText,
	".doc":      MediaText,
	".docx":     MediaText,
	".odt":      MediaText,
	".rtf":      MediaText,
	".html":     MediaText,
	".htm":      MediaText,
}

// DetectMediaKind 根据扩展名判断媒体类型
func DetectMediaKind(filename string) MediaKind {
	if kind, ok := mediaKinds[strings.ToLower(filepath.Ext(filename))]; ok {
		return kind
	}
	if document.IsLocallyParsable(filename) {
		return MediaText
	}
	return MediaUnknown
}

// NeedsTranscription 是否需要语音转写
func (k MediaKind) NeedsTranscription() bool {
	return k == MediaAudio || k == MediaVideo
}

// NeedsOCR 是否需要OCR
func (k MediaKind) NeedsOCR() bool {
	return k == MediaDocument || k == MediaImage
}

var transcribeFormats = map[string]string{
	"mp3":  "mp3",
	"mp4":  "mp4",
	"wav":  "wav",
	"flac": "flac",
	"m4a":  "m4a",
	"ogg":  "ogg",
	"webm": "webm",
}

// TranscribeFormat 返回转写服务使用的媒体格式，未知格式按mp3处理
func TranscribeFormat(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if format, ok := transcribeFormats[ext]; ok {
		return format
	}
	return "mp3"
}
