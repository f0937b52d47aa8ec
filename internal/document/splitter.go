package document

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidChunkSize 分块大小必须为正数
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// breakWindowRatio 超长句子回退切分时，向前搜索断点的最小位置比例
const breakWindowRatio = 0.8

// Chunk 文本分块
// Index从0开始且连续
type Chunk struct {
	Index int    `json:"index"` // 分块序号
	Text  string `json:"text"`  // 分块文本
}

// Len 返回分块字符数（按Unicode码点计）
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// Splitter 文本分块器
type Splitter interface {
	// Split 将文本切分为有序分块
	Split(text string) ([]Chunk, error)
}

// TextSplitter 按句子边界贪心合并的分块器
type TextSplitter struct {
	maxChunkChars int
}

// NewTextSplitter 创建分块器，maxChunkChars为单个分块的最大字符数
func NewTextSplitter(maxChunkChars int) *TextSplitter {
	return &TextSplitter{maxChunkChars: maxChunkChars}
}

// Split 实现Splitter接口
func (s *TextSplitter) Split(text string) ([]Chunk, error) {
	return Partition(text, s.maxChunkChars)
}

// Partition 将任意长度的文本切分为不超过maxChunkChars字符的有序分块
//
// 文本不超过上限时原样返回单个分块；否则按句子切分后贪心合并，
// 句子之间以单个空格连接。单个句子超过上限时，在上限附近寻找空白、
// 逗号、分号或连字符处切开，找不到时在上限处硬切。
// 空文本返回空切片。
func Partition(text string, maxChunkChars int) ([]Chunk, error) {
	if maxChunkChars <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if text == "" {
		return []Chunk{}, nil
	}
	if utf8.RuneCountInString(text) <= maxChunkChars {
		return []Chunk{{Index: 0, Text: text}}, nil
	}

	var pieces []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if piece := strings.TrimSpace(buf.String()); piece != "" {
			pieces = append(pieces, piece)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, sentence := range SplitSentences(text) {
		sentenceLen := utf8.RuneCountInString(sentence)
		sep := 0
		if bufLen > 0 {
			sep = 1
		}

		if bufLen+sep+sentenceLen > maxChunkChars {
			if bufLen > 0 {
				flush()
			}
			if sentenceLen > maxChunkChars {
				pieces = append(pieces, splitLongSentence(sentence, maxChunkChars)...)
				continue
			}
		}

		if bufLen > 0 {
			buf.WriteByte(' ')
			bufLen++
		}
		buf.WriteString(sentence)
		bufLen += sentenceLen
	}
	flush()

	chunks := make([]Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = Chunk{Index: i, Text: piece}
	}
	return chunks, nil
}

// ChunkText 返回分块文本，不带序号
func ChunkText(text string, maxChars int) ([]string, error) {
	chunks, err := Partition(text, maxChars)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts, nil
}

// SplitSentences 按句末标点切分句子
// 句号、感叹号、问号后紧跟空白时断开，标点保留在前一句，空白被丢弃。
// 缩写中的句点可能导致多切，属已知限制。
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}

	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// splitLongSentence 切分超过上限的单个句子
func splitLongSentence(sentence string, maxChunkChars int) []string {
	runes := []rune(sentence)
	minCut := int(float64(maxChunkChars) * breakWindowRatio)

	var pieces []string
	for len(runes) > maxChunkChars {
		cut := maxChunkChars
		for i := maxChunkChars - 1; i >= minCut && i >= 0; i-- {
			if isBreakRune(runes[i]) {
				cut = i + 1
				break
			}
		}

		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		runes = trimLeftSpace(runes[cut:])
	}

	if rest := strings.TrimSpace(string(runes)); rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBreakRune(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';' || r == '-'
}

func trimLeftSpace(runes []rune) []rune {
	i := 0
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return runes[i:]
}

// EstimateTokens 按每token约charsPerToken个字符估算token数，向上取整
func EstimateTokens(text string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
