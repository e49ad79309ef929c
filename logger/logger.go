package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu       sync.Mutex
	instance *logrus.Logger
)

// InitLogger 初始化全局日志，只有第一次调用生效
func InitLogger(logFile, level string, maxSizeMB, maxBackups, maxAge int) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance
	}
	instance = newLogger(logFile, level, maxSizeMB, maxBackups, maxAge)
	return instance
}

func newLogger(logFile, level string, maxSizeMB, maxBackups, maxAge int) *logrus.Logger {
	l := logrus.New()

	// 设置日志级别
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	l.SetLevel(logLevel)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if logFile == "" {
		l.SetOutput(os.Stdout)
		return l
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		l.Errorf("创建日志目录失败: %v", err)
	}

	// 文件输出（带轮转）
	fileOutput := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
		LocalTime:  true,
	}
	l.SetOutput(io.MultiWriter(os.Stdout, fileOutput))
	return l
}

// GetLogger 返回全局日志；未初始化时退化为只输出到终端的 info 级别日志
func GetLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = newLogger("", "info", 0, 0, 0)
	}
	return instance
}
