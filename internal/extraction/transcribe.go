package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-summary-system/pkg/storage"
)

// transcribeAPI Transcribe客户端中用到的操作
type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// TranscribeExtractor 使用AWS Transcribe将音视频转写为文本
// 转写结果写入同一存储桶的<jobName>.json，读取后删除
type TranscribeExtractor struct {
	client transcribeAPI
	store  storage.Storage
	opts   options
}

// NewTranscribeExtractor 创建转写提取器
func NewTranscribeExtractor(client transcribeAPI, store storage.Storage, opts ...Option) *TranscribeExtractor {
	return &TranscribeExtractor{client: client, store: store, opts: buildOptions(opts)}
}

// Extract 转写音视频，缓存键为transcribe:<key>
func (e *TranscribeExtractor) Extract(ctx context.Context, ref SourceRef) (string, error) {
	return cachedExtract(ctx, e.opts, "transcribe:"+ref.Key, func(ctx context.Context) (string, error) {
		return e.transcribe(ctx, ref)
	})
}

// JobName 生成转写任务名
func JobName() string {
	return fmt.Sprintf("transcribe-job-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (e *TranscribeExtractor) transcribe(ctx context.Context, ref SourceRef) (string, error) {
	bucket := e.store.Bucket()
	jobName := JobName()

	_, err := e.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media: &types.Media{
			MediaFileUri: aws.String(storage.S3URI(bucket, ref.Key)),
		},
		MediaFormat:      types.MediaFormat(TranscribeFormat(ref.FileName())),
		LanguageCode:     types.LanguageCode(e.opts.languageCode),
		OutputBucketName: aws.String(bucket),
	})
	if err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}

	log := e.opts.logger.WithFields(logrus.Fields{"job_id": jobName, "key": ref.Key})
	log.Info("Transcription job started")

	attempt := 0
	err = e.opts.poll.Poll(ctx, func(ctx context.Context) (bool, error) {
		attempt++
		out, err := e.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return false, fmt.Errorf("get transcription job: %w", err)
		}
		if out.TranscriptionJob == nil {
			return false, nil
		}

		job := out.TranscriptionJob
		log.WithFields(logrus.Fields{"status": job.TranscriptionJobStatus, "attempt": attempt}).Debug("Transcription job status")
		switch job.TranscriptionJobStatus {
		case types.TranscriptionJobStatusCompleted:
			return true, nil
		case types.TranscriptionJobStatusFailed:
			return false, &JobFailedError{JobID: jobName, Reason: aws.ToString(job.FailureReason)}
		default:
			return false, nil
		}
	})
	if err != nil {
		log.WithError(err).Error("Transcription job did not complete")
		return "", err
	}

	return e.readTranscript(ctx, jobName, log)
}

// transcriptFile Transcribe输出文件中用到的部分
type transcriptFile struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

func (e *TranscribeExtractor) readTranscript(ctx context.Context, jobName string, log *logrus.Entry) (string, error) {
	key := jobName + ".json"
	data, err := storage.ReadAll(ctx, e.store, key)
	if err != nil {
		return "", fmt.Errorf("download transcript: %w", err)
	}

	var file transcriptFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}
	if len(file.Results.Transcripts) == 0 {
		return "", fmt.Errorf("parse transcript: %w", ErrNoContent)
	}

	if err := e.store.Delete(ctx, key); err != nil {
		log.WithError(err).Warn("Failed to clean up transcript file")
	}
	return file.Results.Transcripts[0].Transcript, nil
}
