package summary

import (
	"fmt"
	"strings"
)

const summarySeparator = "\n\n"

func singlePrompt(text string, level DetailLevel, maxWords int) string {
	return fmt.Sprintf("Summarize the following text in %s detail, max %d words:\n%s", level, maxWords, text)
}

// chunkPrompt i从0开始，提示词中显示为1-based
func chunkPrompt(chunk string, i, total, words int) string {
	return fmt.Sprintf("Summarize this chunk (%d/%d) in ~%d words, preserving context for later combination:\n%s",
		i+1, total, words, chunk)
}

func combinePrompt(summaries []string, level DetailLevel, maxWords int) string {
	return fmt.Sprintf("Combine these summaries into one cohesive %s summary, max %d words:\n%s",
		level, maxWords, strings.Join(summaries, summarySeparator))
}

func chunkPlaceholder(i, total int) string {
	return fmt.Sprintf("[summary unavailable for chunk %d/%d]", i+1, total)
}
