package logger

import (
	"io"
	"os"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/models"
	"github.com/sirupsen/logrus"
)

// Logger 是对 logrus 的封装，以提供更方便的结构化日志记录功能。
// With* 方法返回新的 Logger，原实例不受影响，可以在多个 goroutine 中共享。
type Logger struct {
	entry *logrus.Entry
}

// Options 控制全局 logrus 配置。
type Options struct {
	Level  logrus.Level
	Format string // "json"（默认）或 "text"
	Output io.Writer
	Hooks  []logrus.Hook
}

// Init 初始化全局的 logrus 配置。
func Init(opts Options) {
	if opts.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	} else {
		// JSON 格式便于日志采集，字段名与 models.LogEntry 对齐。
		logrus.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	if opts.Output != nil {
		logrus.SetOutput(opts.Output)
	} else {
		logrus.SetOutput(os.Stderr)
	}

	logrus.SetLevel(opts.Level)
	for _, hook := range opts.Hooks {
		logrus.AddHook(hook)
	}
}

// New 创建一个新的 Logger 实例，预设服务名和组件名。
func New(serviceName, component string) *Logger {
	fields := logrus.Fields{"service_name": serviceName}
	if component != "" {
		fields["component"] = component
	}
	return &Logger{entry: logrus.WithFields(fields)}
}

// Discard 返回一个丢弃所有输出的 Logger，测试里常用。
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(l)}
}

// Component 派生一个属于其他组件的 Logger。
func (l *Logger) Component(name string) *Logger {
	return l.WithField("component", name)
}

// WithField 添加单个字段。
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithTask 添加任务ID，Kafka 日志推送会用它作为消息 key。
func (l *Logger) WithTask(taskID string) *Logger {
	return l.WithField("task_id", taskID)
}

// WithRequest 将请求信息添加到日志条目中。
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return l.WithField("request_info", req)
}

// WithError 将错误分类、状态码和文案添加到日志条目中。
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", models.NewErrorInfo(err))
}

// WithPayload 将自定义的业务数据添加到日志条目中。
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return l.WithField("payload", payload)
}

// Info 记录一条信息级别的日志。
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn 记录一条警告级别的日志。
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error 记录一条错误级别的日志。
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug 记录一条调试级别的日志。
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal 记录一条致命错误级别的日志，并终止程序。
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
