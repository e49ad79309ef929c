package backend

import (
	"time"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/database"
	"youku-danmu-go/logger"
)

func importDanmuToDB(vid string, comments []model.Comment) (int, error) {
	log := logger.GetLogger()
	log.Infof("正在导入 %d 条弹幕到数据库 (vid: %s)", len(comments), vid)

	if len(comments) == 0 {
		log.Warn("警告: 尝试导入空弹幕列表")
		return 0, nil
	}

	rows := make([]*database.Danmu, 0, len(comments))
	for _, c := range comments {
		if row := convertToDBDanmu(vid, c); row != nil {
			rows = append(rows, row)
		}
	}
	return saveDanmuRows(vid, rows)
}

func saveDanmuRows(vid string, rows []*database.Danmu) (int, error) {
	inserted, err := database.BatchSaveDanmu(rows)
	if err != nil {
		return inserted, &CrawlerError{
			Message:   "批量保存弹幕失败: " + err.Error(),
			Type:      ErrorTypeDatabaseError,
			Level:     ErrorLevelHigh,
			Timestamp: time.Now().Unix(),
			cause:     err,
		}
	}

	if err := database.UpdateDanmuStats(vid); err != nil {
		logger.GetLogger().Errorf("更新弹幕统计失败: %v", err)
	}
	return inserted, nil
}

func convertToDBDanmu(vid string, c model.Comment) *database.Danmu {
	if c.Text == "" {
		logger.GetLogger().Debugf("跳过空弹幕: %+v", c)
		return nil
	}
	return &database.Danmu{
		Vid:      vid,
		Text:     c.Text,
		Time:     c.Time,
		Color:    c.Color,
		Type:     c.Type.String(),
		FontSize: int(c.FontSize),
		Sender:   c.Sender,
		Date:     c.Date,
	}
}
