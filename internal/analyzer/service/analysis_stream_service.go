package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/common"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/telegram"
	"golang-zone-analyzer/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// AnalysisStreamService consumes analysis jobs from the redis stream.
type AnalysisStreamService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Execute(ctx context.Context, data dto.StreamDataAnalysisJob) error
}

type analysisStreamService struct {
	cfg         *config.Config
	log         *logger.Logger
	redisClient redis.Cmdable
	pipeline    Pipeline
	telegramBot telegram.Notifier
	validate    *validator.Validate
}

func NewAnalysisStreamService(cfg *config.Config, log *logger.Logger,
	redisClient redis.Cmdable,
	pipeline Pipeline,
	telegramBot telegram.Notifier) AnalysisStreamService {
	return &analysisStreamService{
		cfg:         cfg,
		log:         log,
		redisClient: redisClient,
		pipeline:    pipeline,
		telegramBot: telegramBot,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// errInvalidPayload marks messages that can never succeed and must not be retried.
var errInvalidPayload = errors.New("invalid analysis job payload")

func (s *analysisStreamService) decode(values map[string]interface{}) (dto.StreamDataAnalysisJob, error) {
	var data dto.StreamDataAnalysisJob

	// The task data is expected to be a JSON string in the 'payload' field.
	taskData, ok := values["payload"].(string)
	if !ok {
		return data, fmt.Errorf("%w: field 'payload' not found or not a string", errInvalidPayload)
	}
	if err := json.Unmarshal([]byte(taskData), &data); err != nil {
		return data, fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	return data, nil
}

func (s *analysisStreamService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamAnalysisJob, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block for 2 seconds to allow graceful shutdown
	}).Result()
	if err != nil {
		// Ignore context cancellation and timeout errors, as they are expected during shutdown or idle periods.
		if errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		s.log.Debug("No messages found", logger.StringField("stream", common.RedisStreamAnalysisJob))
		return
	}

	message := streams[0].Messages[0]
	data, err := s.decode(message.Values)
	if err != nil {
		s.log.Error("Dropping malformed analysis job", logger.ErrorField(err), logger.Field("message_id", message.ID))
		if err := s.AckNDel(ctx, common.RedisStreamAnalysisJob, message.ID); err != nil {
			s.log.Error("Failed to acknowledge malformed message", logger.ErrorField(err), logger.Field("message_id", message.ID))
		}
		return
	}

	s.log.Debug("Processing analysis job", logger.StringField("pair", data.Pair), logger.StringField("strategy", string(data.Strategy)))

	if err := s.Execute(ctx, data); err != nil {
		s.log.Error("Failed to analyze pair", logger.ErrorField(err), logger.Field("message_id", message.ID), logger.StringField("pair", data.Pair))
		if !errors.Is(err, errInvalidPayload) {
			// left pending; ProcessRetries picks it up after the idle window
			return
		}
	}
	if err := s.AckNDel(ctx, common.RedisStreamAnalysisJob, message.ID); err != nil {
		s.log.Error("Failed to acknowledge and delete analysis job", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.log.Debug("Analysis job processed successfully", logger.StringField("pair", data.Pair))
}

func (s *analysisStreamService) Execute(ctx context.Context, data dto.StreamDataAnalysisJob) error {
	if err := s.validate.Struct(data); err != nil {
		return fmt.Errorf("%w: %w", errInvalidPayload, err)
	}

	result, err := s.pipeline.Run(ctx, data)
	if err != nil {
		return err
	}

	s.log.Info("Analysis job completed",
		logger.StringField("pair", result.Decision.Pair),
		logger.StringField("strategy", string(result.Decision.Strategy)),
		logger.StringField("status", string(result.Decision.Status)),
		logger.StringField("duration", result.Duration.String()))
	return nil
}

func (s *analysisStreamService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge analysis job", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete analysis job", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	return nil
}

func (s *analysisStreamService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamAnalysisJob,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Analyzer.RedisStreamMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim analysis job on retry", logger.ErrorField(err))
		return
	}

	if len(msgs) == 0 {
		s.log.Debug("Retry No pending messages found", logger.StringField("stream", common.RedisStreamAnalysisJob))
		return
	}

	msg := msgs[0]
	s.log.Info("Found pending messages", logger.StringField("stream", common.RedisStreamAnalysisJob), logger.StringField("message_id", msg.ID))

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamAnalysisJob,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}

	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamAnalysisJob),
			logger.StringField("message_id", msg.ID))
		return
	}

	data, err := s.decode(msg.Values)
	if err != nil {
		s.log.Error("Dropping malformed analysis job", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		_ = s.AckNDel(ctx, common.RedisStreamAnalysisJob, msg.ID)
		return
	}

	if err := s.Execute(ctx, data); err != nil {
		s.log.Error("Failed to analyze pair", logger.ErrorField(err), logger.Field("message_id", msg.ID), logger.StringField("pair", data.Pair))

		if pendingInfo[0].RetryCount+1 >= int64(s.cfg.Analyzer.RedisStreamMaxRetry) {
			s.log.Error("pending msg retry count exceeded",
				logger.StringField("stream", common.RedisStreamAnalysisJob),
				logger.StringField("message_id", msg.ID),
				logger.StringField("pair", data.Pair),
				logger.IntField("retry_count", int(pendingInfo[0].RetryCount+1)),
				logger.IntField("max_retry", s.cfg.Analyzer.RedisStreamMaxRetry),
			)
			s.alertRetryExceeded(data, err)
			if err := s.AckNDel(ctx, common.RedisStreamAnalysisJob, msg.ID); err != nil {
				s.log.Error("Failed to acknowledge and delete analysis job", logger.ErrorField(err), logger.Field("message_id", msg.ID))
			}
		}
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamAnalysisJob, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge and delete analysis job", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}
	s.log.Info("Retry analysis job processed successfully", logger.StringField("pair", data.Pair))
}

func (s *analysisStreamService) alertRetryExceeded(data dto.StreamDataAnalysisJob, cause error) {
	errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamAnalysisJob)
	rawJson, _ := json.Marshal(data)
	msgTelegram := telegram.FormatErrorAlertMessage(utils.TimeNowWIB(), errType, cause.Error(), string(rawJson))
	if err := s.telegramBot.SendMessage(msgTelegram); err != nil {
		s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err), logger.StringField("pair", data.Pair))
	}
}
