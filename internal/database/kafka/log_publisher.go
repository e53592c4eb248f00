package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// messageWriter 是 kafka.Writer 中用到的部分，便于测试替换。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LogHook 是一个 logrus hook，把日志条目序列化为 JSON 发送到 Kafka。
// 有 task_id 字段时以它作为消息 key，同一任务的日志落在同一分区。
type LogHook struct {
	writer  messageWriter
	levels  []logrus.Level
	timeout time.Duration
}

// NewLogHook 根据配置创建 LogHook。
func NewLogHook(cfg config.KafkaLogConfig) (*LogHook, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("未配置 Kafka 日志主题")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		Async:                  true,
		AllowAutoTopicCreation: true,
	}
	return newLogHook(writer), nil
}

func newLogHook(w messageWriter) *LogHook {
	return &LogHook{
		writer:  w,
		levels:  logrus.AllLevels,
		timeout: 2 * time.Second,
	}
}

// Levels 实现 logrus.Hook。
func (h *LogHook) Levels() []logrus.Level {
	return h.levels
}

// Fire 实现 logrus.Hook。
func (h *LogHook) Fire(entry *logrus.Entry) error {
	record := make(map[string]interface{}, len(entry.Data)+3)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		record[k] = v
	}
	record["timestamp"] = entry.Time.Format(time.RFC3339Nano)
	record["level"] = entry.Level.String()
	record["message"] = entry.Message

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	var key []byte
	if taskID, ok := entry.Data["task_id"].(string); ok {
		key = []byte(taskID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: jsonData}); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (h *LogHook) Close() error {
	return h.writer.Close()
}
