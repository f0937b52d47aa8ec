package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fyerfyer/doc-summary-system/pkg/storage"
)

// ErrInvalidYouTubeURL 无法从URL中解析视频ID
var ErrInvalidYouTubeURL = errors.New("could not extract video id from youtube url")

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/embed/[\w-]+`),
	regexp.MustCompile(`^https?://m\.youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/v/[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/shorts/[\w-]+`),
}

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/shorts/)([^&\n?#/]+)`)

// IsYouTubeURL 判断是否为YouTube视频链接
func IsYouTubeURL(url string) bool {
	for _, p := range youtubePatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}

// ExtractVideoID 解析视频ID
func ExtractVideoID(url string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil || m[1] == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidYouTubeURL, url)
	}
	return m[1], nil
}

// CommandRunner 执行外部命令
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// YouTubeExtractor 用yt-dlp下载音频，上传后交给转写服务
type YouTubeExtractor struct {
	store       storage.Storage
	transcriber Gateway
	tempDir     string
	binary      string
	run         CommandRunner
	opts        options
}

// YouTubeConfig yt-dlp配置
type YouTubeConfig struct {
	Binary  string        // yt-dlp可执行文件
	TempDir string        // 下载目录
	Runner  CommandRunner // 为nil时使用os/exec
}

// NewYouTubeExtractor 创建YouTube提取器
func NewYouTubeExtractor(store storage.Storage, transcriber Gateway, cfg YouTubeConfig, opts ...Option) *YouTubeExtractor {
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner
	}
	return &YouTubeExtractor{
		store:       store,
		transcriber: transcriber,
		tempDir:     cfg.TempDir,
		binary:      cfg.Binary,
		run:         cfg.Runner,
		opts:        buildOptions(opts),
	}
}

// Identity 视频对应的缓存标识: youtube-<videoID>
func Identity(videoID string) string {
	return "youtube-" + videoID
}

// ExtractURL 下载、上传并转写视频音频
func (y *YouTubeExtractor) ExtractURL(ctx context.Context, url string) (string, error) {
	videoID, err := ExtractVideoID(url)
	if err != nil {
		return "", err
	}
	if y.transcriber == nil {
		return "", fmt.Errorf("%w: no transcriber for youtube audio", ErrUnsupportedMedia)
	}

	dir, err := os.MkdirTemp(y.tempDir, "yt-"+videoID+"-")
	if err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, videoID+".%(ext)s")
	err = y.run(ctx, y.binary,
		"-f", "bestaudio[ext=m4a]/bestaudio[ext=mp3]/bestaudio",
		"--extract-audio", "--audio-format", "mp3",
		"-o", output, url)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}

	audioPath, err := findAudio(dir, videoID)
	if err != nil {
		return "", err
	}
	audioName := filepath.Base(audioPath)
	key := fmt.Sprintf("%s-%s", Identity(videoID), audioName)

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	if _, err := y.store.Put(ctx, key, f, -1, storage.ContentTypeFor(audioName)); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	y.opts.logger.WithField("key", key).Info("Uploaded youtube audio")

	return y.transcriber.Extract(ctx, SourceRef{Key: key, Name: audioName})
}

// Extract 以ref.Key作为视频URL
func (y *YouTubeExtractor) Extract(ctx context.Context, ref SourceRef) (string, error) {
	return y.ExtractURL(ctx, ref.Key)
}

func findAudio(dir, videoID string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read download dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, videoID) && (strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".m4a")) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("audio file not found after download: %w", ErrNoContent)
}
