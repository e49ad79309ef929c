package backend

import (
	"time"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/crawler/youku/store"
	"youku-danmu-go/logger"
)

func (m *Manager) processCSVOnly(vid string, comments []model.Comment) (string, error) {
	csvPath, err := store.Save2CSV(vid, vid, comments, m.outputDir)
	if err != nil {
		logger.GetLogger().Errorf("保存CSV失败: %v", err)
		return "", storageError(err)
	}
	logger.GetLogger().Infof("CSV保存成功: %s", csvPath)
	return csvPath, nil
}

// processCSVAndDB 先写 CSV，再把这份 CSV 导入数据库
func (m *Manager) processCSVAndDB(vid string, comments []model.Comment) (string, int, error) {
	csvPath, err := m.processCSVOnly(vid, comments)
	if err != nil {
		return "", 0, err
	}

	imported, err := ImportDanmuFromCSV(vid, csvPath)
	if err != nil {
		logger.GetLogger().Errorf("导入数据库失败: %v", err)
		return csvPath, imported, err
	}
	return csvPath, imported, nil
}

func storageError(err error) *CrawlerError {
	return &CrawlerError{
		Message:   "文件读写失败: " + err.Error(),
		Type:      ErrorTypeStorageError,
		Level:     ErrorLevelHigh,
		Timestamp: time.Now().Unix(),
		cause:     err,
	}
}
