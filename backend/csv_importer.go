package backend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/database"
	"youku-danmu-go/logger"
)

// ImportDanmuFromCSV 把导出的弹幕 CSV 导入数据库，按列名取值，缺失或异常的列回落到默认值。
// 行内 vid 为空时使用参数 vid；返回新增条数。
func ImportDanmuFromCSV(vid, filePath string) (int, error) {
	log := logger.GetLogger()

	file, err := os.Open(filePath)
	if err != nil {
		return 0, storageError(err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // 允许可变字段数

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, storageError(fmt.Errorf("读取CSV表头失败: %w", err))
	}
	fieldMap := make(map[string]int)
	for i, field := range header {
		fieldMap[strings.ToLower(strings.TrimSpace(field))] = i
	}
	if _, ok := fieldMap["text"]; !ok {
		return 0, NewCrawlerError("CSV缺少 text 列: "+filePath, ErrorTypeUserInput, ErrorLevelLow)
	}

	var rows []*database.Danmu
	vids := make(map[string]bool)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return 0, storageError(fmt.Errorf("读取CSV失败: %w", err))
			}
			log.Warnf("跳过无法解析的CSV行 %d: %v", line, err)
			continue
		}

		get := func(field string) string {
			if idx, ok := fieldMap[field]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		rowVid := get("vid")
		if rowVid == "" {
			rowVid = vid
		}
		if rowVid == "" || get("text") == "" {
			continue
		}

		timeMs, _ := strconv.ParseInt(get("time"), 10, 64)
		date, _ := strconv.ParseInt(get("date"), 10, 64)
		fontSize, _ := strconv.Atoi(get("font_size"))
		rows = append(rows, &database.Danmu{
			Vid:      rowVid,
			Text:     get("text"),
			Time:     timeMs,
			Color:    parseColor(get("color")),
			Type:     model.ParseDisplayType(get("type")).String(),
			FontSize: fontSize,
			Sender:   get("sender"),
			Date:     date,
		})
		vids[rowVid] = true
	}

	log.Infof("从CSV读取 %d 条弹幕: %s", len(rows), filePath)
	if len(rows) == 0 {
		return 0, nil
	}

	inserted, err := database.BatchSaveDanmu(rows)
	if err != nil {
		return inserted, &CrawlerError{Message: "批量保存弹幕失败: " + err.Error(), Type: ErrorTypeDatabaseError, Level: ErrorLevelHigh, cause: err}
	}
	for v := range vids {
		if err := database.UpdateDanmuStats(v); err != nil {
			log.Errorf("更新弹幕统计失败: %v", err)
		}
	}
	return inserted, nil
}

// parseColor 接受 "#RRGGBB" 或十进制，无法解析时为白色
func parseColor(s string) int {
	if s == "" {
		return model.DefaultColor
	}
	if strings.HasPrefix(s, "#") {
		if n, err := strconv.ParseInt(s[1:], 16, 32); err == nil && n >= 0 {
			return int(n)
		}
		return model.DefaultColor
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return model.DefaultColor
}

// ImportAllCSV 导入目录下所有 <vid>.csv，返回总新增条数；单个文件失败只记录日志
func ImportAllCSV(dir string) (int, error) {
	log := logger.GetLogger()
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return 0, storageError(fmt.Errorf("查找CSV文件失败: %w", err))
	}

	total := 0
	for _, file := range files {
		vid := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		log.Infof("开始导入CSV文件: %s, vid: %s", file, vid)
		n, err := ImportDanmuFromCSV(vid, file)
		if err != nil {
			log.Errorf("导入CSV文件失败: %v", err)
			continue
		}
		total += n
		log.Infof("成功导入CSV文件: %s (新增 %d 条)", file, n)
	}
	return total, nil
}
