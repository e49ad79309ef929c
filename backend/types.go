package backend

import (
	"errors"
	"time"

	"youku-danmu-go/crawler/network"
	"youku-danmu-go/crawler/youku"
)

// 保存模式常量
const (
	SaveModeCSVOnly  = "csv_only"
	SaveModeDBOnly   = "db_only"
	SaveModeCSVAndDB = "csv_and_db"
)

// 错误级别常量
const (
	ErrorLevelCritical = "critical" // 严重错误：影响系统正常运行
	ErrorLevelHigh     = "high"     // 高级错误：影响数据完整性
	ErrorLevelMedium   = "medium"
	ErrorLevelLow      = "low"
)

// 错误类型
const (
	ErrorTypeUserInput     = "user_input"     // 地址或描述不合法
	ErrorTypeNetworkError  = "network_error"  // 网络错误
	ErrorTypeDecodeError   = "decode_error"   // 页面解析失败
	ErrorTypeDatabaseError = "database_error" // 数据库错误
	ErrorTypeStorageError  = "storage_error"  // 文件读写错误
	ErrorTypeConfiguration = "configuration"  // 配置错误
	ErrorTypeBusinessLogic = "business_logic" // 业务逻辑
	ErrorTypeUnknown       = "unknown"
)

// CrawlerError 爬取与导入流程对外暴露的错误
type CrawlerError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	Details   string `json:"details,omitempty"`
	Timestamp int64  `json:"timestamp"`

	cause error
}

func (e CrawlerError) Error() string {
	return e.Message
}

func (e CrawlerError) Unwrap() error {
	return e.cause
}

// NewCrawlerError 创建新的爬虫错误
func NewCrawlerError(message, errorType, level string) *CrawlerError {
	return &CrawlerError{
		Message:   message,
		Type:      errorType,
		Level:     level,
		Timestamp: time.Now().Unix(),
	}
}

// wrapCrawlerError 按底层错误归类，保留原错误供 errors.Is / errors.As 使用
func wrapCrawlerError(message string, err error) *CrawlerError {
	errorType, level := classify(err)
	ce := NewCrawlerError(message+": "+err.Error(), errorType, level)
	ce.Details = err.Error()
	ce.cause = err
	return ce
}

func classify(err error) (string, string) {
	var netErr *network.NetworkError
	var descErr *youku.DescriptorError
	switch {
	case errors.As(err, &netErr):
		return ErrorTypeNetworkError, ErrorLevelMedium
	case errors.As(err, &descErr):
		return ErrorTypeUserInput, ErrorLevelLow
	case errors.Is(err, youku.ErrDecodeFailed):
		return ErrorTypeDecodeError, ErrorLevelMedium
	default:
		return ErrorTypeUnknown, ErrorLevelHigh
	}
}

// GetErrorTypeName 获取错误类型中文名称
func GetErrorTypeName(errorType string) string {
	typeNames := map[string]string{
		ErrorTypeUserInput:     "用户输入错误",
		ErrorTypeNetworkError:  "网络错误",
		ErrorTypeDecodeError:   "页面解析错误",
		ErrorTypeDatabaseError: "数据库错误",
		ErrorTypeStorageError:  "文件读写错误",
		ErrorTypeConfiguration: "配置错误",
		ErrorTypeBusinessLogic: "业务逻辑错误",
	}
	if name, exists := typeNames[errorType]; exists {
		return name
	}
	return errorType
}

// DownloadReport 汇总一次下载（或导入）的结果
type DownloadReport struct {
	Vid        string `json:"vid"`
	Title      string `json:"title"`
	SourceURL  string `json:"source_url,omitempty"`
	Descriptor string `json:"descriptor"`
	DanmuCount int    `json:"danmu_count"`
	Imported   int    `json:"imported"`
	CSVPath    string `json:"csv_path,omitempty"`
	SaveMode   string `json:"save_mode"`
}
