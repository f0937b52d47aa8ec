package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/sirupsen/logrus"
)

// NoBlocksFound Textract未返回任何块时的文本
const NoBlocksFound = "No Blocks Found"

// textractAPI Textract客户端中用到的操作
type textractAPI interface {
	StartDocumentTextDetection(ctx context.Context, params *textract.StartDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(ctx context.Context, params *textract.GetDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
}

// TextractExtractor 使用AWS Textract异步OCR提取PDF和图片中的文本
type TextractExtractor struct {
	client textractAPI
	bucket string
	opts   options
}

// NewTextractExtractor 创建Textract提取器，bucket为上传文件所在的S3存储桶
func NewTextractExtractor(client textractAPI, bucket string, opts ...Option) *TextractExtractor {
	return &TextractExtractor{client: client, bucket: bucket, opts: buildOptions(opts)}
}

// Extract 提取文本，缓存键为textract:<key>
func (e *TextractExtractor) Extract(ctx context.Context, ref SourceRef) (string, error) {
	return cachedExtract(ctx, e.opts, "textract:"+ref.Key, func(ctx context.Context) (string, error) {
		return e.detect(ctx, ref.Key)
	})
}

func (e *TextractExtractor) detect(ctx context.Context, key string) (string, error) {
	start, err := e.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(e.bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("start text detection: %w", err)
	}
	jobID := aws.ToString(start.JobId)
	if jobID == "" {
		return "", fmt.Errorf("start text detection: no job id returned for %s", key)
	}

	log := e.opts.logger.WithFields(logrus.Fields{"job_id": jobID, "key": key})
	log.Info("Textract job started")

	var first *textract.GetDocumentTextDetectionOutput
	attempt := 0
	err = e.opts.poll.Poll(ctx, func(ctx context.Context) (bool, error) {
		attempt++
		out, err := e.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return false, fmt.Errorf("get text detection: %w", err)
		}

		log.WithFields(logrus.Fields{"status": out.JobStatus, "attempt": attempt}).Debug("Textract job status")
		switch out.JobStatus {
		case types.JobStatusSucceeded, types.JobStatusPartialSuccess:
			first = out
			return true, nil
		case types.JobStatusFailed:
			return false, &JobFailedError{JobID: jobID, Reason: aws.ToString(out.StatusMessage)}
		default:
			return false, nil
		}
	})
	if err != nil {
		log.WithError(err).Error("Textract job did not succeed")
		return "", err
	}

	blocks, err := e.collectBlocks(ctx, jobID, first)
	if err != nil {
		return "", err
	}
	return StitchBlocks(blocks), nil
}

// collectBlocks 沿NextToken读取剩余结果页
func (e *TextractExtractor) collectBlocks(ctx context.Context, jobID string, first *textract.GetDocumentTextDetectionOutput) ([]types.Block, error) {
	blocks := append([]types.Block(nil), first.Blocks...)
	next := first.NextToken
	for next != nil && *next != "" {
		out, err := e.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: next,
		})
		if err != nil {
			return nil, fmt.Errorf("get text detection page: %w", err)
		}
		blocks = append(blocks, out.Blocks...)
		next = out.NextToken
	}
	return blocks, nil
}

// StitchBlocks 拼接Textract块
// LINE块逐行拼接，不属于任何LINE的WORD块以空格拼接后附在最后
func StitchBlocks(blocks []types.Block) string {
	if len(blocks) == 0 {
		return NoBlocksFound
	}

	children := make(map[string]struct{})
	for _, b := range blocks {
		if b.BlockType != types.BlockTypeLine {
			continue
		}
		for _, rel := range b.Relationships {
			if rel.Type != types.RelationshipTypeChild {
				continue
			}
			for _, id := range rel.Ids {
				children[id] = struct{}{}
			}
		}
	}

	var lines, words []string
	for _, b := range blocks {
		text := aws.ToString(b.Text)
		switch b.BlockType {
		case types.BlockTypeLine:
			if text != "" {
				lines = append(lines, text)
			}
		case types.BlockTypeWord:
			if _, ok := children[aws.ToString(b.Id)]; !ok && text != "" {
				words = append(words, text)
			}
		}
	}

	lineText := strings.Join(lines, "\n")
	wordText := strings.Join(words, " ")
	switch {
	case lineText != "" && wordText != "":
		return lineText + "\n" + wordText
	case lineText != "":
		return lineText
	default:
		return wordText
	}
}
