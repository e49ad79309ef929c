package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"
	"youku-danmu-go/utils"
)

// Headers 是导出 CSV 的列，导入时按列名取值
var Headers = []string{"vid", "text", "time", "color", "type", "font_size", "sender", "date"}

func CMT2Record(vid string, cmt model.Comment) []string {
	return []string{
		vid,
		cmt.Text,
		strconv.FormatInt(cmt.Time, 10),
		fmt.Sprintf("#%06X", cmt.Color),
		cmt.Type.String(),
		strconv.Itoa(int(cmt.FontSize)),
		cmt.Sender,
		strconv.FormatInt(cmt.Date, 10),
	}
}

// Save2CSV 把一个视频的弹幕写入 output/<filename>.csv。
// 文件已存在时追加，不存在时新建并写表头；返回写入的文件路径。
func Save2CSV(filename, vid string, cmts []model.Comment, output string) (string, error) {
	log := logger.GetLogger()
	if err := utils.EnsureDir(output); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	csvPath := filepath.Join(output, filename+".csv")
	if len(cmts) == 0 {
		log.Warnf("没有弹幕可写入，跳过: %s", csvPath)
		return csvPath, nil
	}

	appending := utils.FileExists(csvPath)
	var (
		file *os.File
		err  error
	)
	if appending {
		file, err = os.OpenFile(csvPath, os.O_WRONLY|os.O_APPEND, 0644)
	} else {
		file, err = os.Create(csvPath)
	}
	if err != nil {
		return "", fmt.Errorf("打开csv文件错误 (vid: %s): %w", vid, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if !appending {
		if err := writer.Write(Headers); err != nil {
			return "", fmt.Errorf("写入csv文件字段错误 (vid: %s): %w", vid, err)
		}
	}

	written := 0
	for _, cmt := range cmts {
		if cmt.Text == "" {
			continue
		}
		if err := writer.Write(CMT2Record(vid, cmt)); err != nil {
			log.Errorf("写入弹幕至csv文件错误 (vid: %s): %v", vid, err)
			continue
		}
		written++
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("刷新csv文件失败 (vid: %s): %w", vid, err)
	}

	if appending {
		log.Infof("追加 %d 条弹幕至csv文件成功: %s", written, csvPath)
	} else {
		log.Infof("写入 %d 条弹幕至csv文件成功: %s", written, csvPath)
	}
	return csvPath, nil
}
