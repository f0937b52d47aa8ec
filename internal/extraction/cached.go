package extraction

import (
	"context"

	"github.com/sirupsen/logrus"
)

// cachedExtract 命中缓存时跳过任务提交，缓存读写失败只记录日志
func cachedExtract(ctx context.Context, o options, cacheKey string, extract func(ctx context.Context) (string, error)) (string, error) {
	log := o.logger.WithField("cache_key", cacheKey)

	if o.cache != nil {
		text, found, err := o.cache.Get(ctx, cacheKey)
		if err != nil {
			log.WithError(err).Warn("Extraction cache read failed")
		} else if found {
			log.Info("Extracted text found in cache")
			return text, nil
		}
	}

	text, err := extract(ctx)
	if err != nil {
		return "", err
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, cacheKey, text, resultTTL); err != nil {
			log.WithError(err).Warn("Extraction cache write failed")
		} else {
			log.WithFields(logrus.Fields{"length": len(text)}).Debug("Cached extracted text")
		}
	}
	return text, nil
}
