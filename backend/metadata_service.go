package backend

import (
	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/database"
	"youku-danmu-go/logger"
)

// saveVideoMetadata 记录解析后的视频信息；sourceURL 为空表示按来源描述直接下载
func saveVideoMetadata(item model.SourceItem, sourceURL string) error {
	video := &database.Video{
		Vid:          item.ID,
		SourceURL:    sourceURL,
		Title:        item.Title,
		Duration:     item.Duration,
		SegmentCount: item.SegmentCount,
		Descriptor:   item.Descriptor(),
	}
	if err := database.SaveVideo(video); err != nil {
		return err
	}
	logger.GetLogger().Infof("视频元数据保存成功: %s (%s)", item.ID, item.Title)
	return nil
}
