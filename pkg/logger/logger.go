package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger 在 logrus.Entry 之上做了一层薄封装，
// 让业务代码以链式方式绑定用户、错误和负载字段。
type Logger struct {
	entry *logrus.Entry
}

// Init 配置全局 logrus：JSON 输出到标准输出，字段名统一为
// timestamp/level/message，便于日志采集侧解析。
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// New 创建带服务名、trace 和用户标识初始字段的 Logger，
// 暂不确定的字段可以传空串，后续用 WithUser 等方法补充。
func New(serviceName, traceID, userID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
			"user_id":      userID,
		}),
	}
}

// WithUser 返回绑定了用户手机号的新 Logger，原实例不受影响。
func (l *Logger) WithUser(phone string) *Logger {
	return &Logger{entry: l.entry.WithField("user_id", phone)}
}

// WithError 附加错误信息。
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// WithPayload 附加业务负载，整体挂在 payload 字段下。
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

func (l *Logger) Info(message string)  { l.entry.Info(message) }
func (l *Logger) Warn(message string)  { l.entry.Warn(message) }
func (l *Logger) Error(message string) { l.entry.Error(message) }
func (l *Logger) Debug(message string) { l.entry.Debug(message) }

// Fatal 记日志后终止进程，只在启动阶段使用。
func (l *Logger) Fatal(message string) { l.entry.Fatal(message) }
