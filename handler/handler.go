package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"worker-analysis/constant"
	"worker-analysis/dto"
	"worker-analysis/entities"
	"worker-analysis/pkg/rabbitmq"
	"worker-analysis/service"
)

var ErrInvalidMessage = errors.New("invalid analysis message")

type Analyzer interface {
	Run(ctx context.Context, sub service.Submission) (dto.ProcessingResult, error)
}

type ResultPublisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

type ServiceDependencies struct {
	Analyzer  Analyzer
	Storage   service.ObjectStorage
	Publisher ResultPublisher
}

// AnalysisHandler runs the pipeline for one queued message and publishes
// the result. Once the pipeline ran, every error is permanent so the
// message is never processed twice.
func AnalysisHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.AnalysisMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal analysis message")
		return backoff.Permanent(errors.Join(ErrInvalidMessage, err))
	}
	if message.UserId == "" || message.ObjectPath == "" {
		return backoff.Permanent(fmt.Errorf("%w: userId and objectPath are required", ErrInvalidMessage))
	}

	logger := zerolog.Ctx(ctx).With().Str("object_path", message.ObjectPath).Str("user_id", message.UserId).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("received analysis message")

	data, contentType, err := deps.Storage.Get(ctx, message.ObjectPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to download source object")
		return err
	}

	mimeType := message.MimeType
	if mimeType == "" {
		mimeType = contentType
	}
	fileName := message.FileName
	if fileName == "" {
		fileName = message.ObjectPath
	}

	result, err := deps.Analyzer.Run(ctx, service.Submission{
		UserId:    message.UserId,
		FileName:  fileName,
		Asset:     entities.NewVideoAsset(data, mimeType),
		Target:    constant.TargetAudience(message.TargetAudience),
		Transcode: message.Transcode,
	})
	if err != nil {
		logger.Error().Err(err).Msg("analysis failed")
	}

	if err := deps.Publisher.Publish(ctx, rabbitmq.ResultRoutingKey, result); err != nil {
		logger.Error().Err(err).Msg("failed to publish analysis result")
		return backoff.Permanent(err)
	}
	return nil
}
