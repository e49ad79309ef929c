package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"youku-danmu-go/logger"

	_ "modernc.org/sqlite"
)

// 全局数据库连接
var db *sql.DB

// InitDB 初始化数据库连接
func InitDB(dbPath string) error {
	// 确保数据库目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("创建数据库目录失败: %w", err)
	}

	var err error
	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("打开数据库失败: %w", err)
	}

	pragmaStmts := []string{
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmaStmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("设置PRAGMA失败: %w", err)
		}
	}

	if err := createTables(); err != nil {
		return fmt.Errorf("创建表失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("数据库连接测试失败: %w", err)
	}

	logger.GetLogger().Infof("数据库初始化成功: %s", dbPath)
	return nil
}

// CloseDB 关闭数据库连接
func CloseDB() {
	if db != nil {
		db.Close()
		db = nil
		logger.GetLogger().Info("数据库连接已关闭")
	}
}

func GetDB() *sql.DB {
	return db
}

func createTables() error {
	videoTableSQL := `
	CREATE TABLE IF NOT EXISTS video_info (
		vid TEXT PRIMARY KEY,
		source_url TEXT,
		title TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		segment_count INTEGER NOT NULL DEFAULT 0,
		descriptor TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(videoTableSQL); err != nil {
		return fmt.Errorf("创建视频表失败: %w", err)
	}

	// 同一视频内 (发送者, 出现时间, 发送时间, 内容) 相同视为重复弹幕
	danmuTableSQL := `
	CREATE TABLE IF NOT EXISTS danmu (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vid TEXT NOT NULL,
		text TEXT NOT NULL,
		time_ms INTEGER NOT NULL,
		color INTEGER NOT NULL,
		type TEXT NOT NULL,
		font_size INTEGER NOT NULL DEFAULT 0,
		sender TEXT,
		date INTEGER
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_danmu_unique ON danmu(vid, sender, time_ms, date, text);
	CREATE INDEX IF NOT EXISTS idx_danmu_vid_time ON danmu(vid, time_ms);`
	if _, err := db.Exec(danmuTableSQL); err != nil {
		return fmt.Errorf("创建弹幕表失败: %w", err)
	}

	statsTableSQL := `
	CREATE TABLE IF NOT EXISTS danmu_stats (
		vid TEXT PRIMARY KEY,
		danmu_count INTEGER NOT NULL DEFAULT 0,
		last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(statsTableSQL); err != nil {
		return fmt.Errorf("创建弹幕统计表失败: %w", err)
	}

	logger.GetLogger().Debug("数据库表创建成功")
	return nil
}

// SaveVideo 保存（或覆盖）视频信息；覆盖时空标题、空地址与零时长不覆盖已有值
func SaveVideo(video *Video) error {
	if video == nil || video.Vid == "" {
		return errors.New("保存视频信息失败: vid 为空")
	}
	_, err := db.Exec(`
		INSERT INTO video_info (vid, source_url, title, duration, segment_count, descriptor)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(vid) DO UPDATE SET
			source_url = CASE WHEN excluded.source_url != '' THEN excluded.source_url ELSE video_info.source_url END,
			title = CASE WHEN excluded.title != '' THEN excluded.title ELSE video_info.title END,
			duration = CASE WHEN excluded.duration > 0 THEN excluded.duration ELSE video_info.duration END,
			segment_count = excluded.segment_count,
			descriptor = excluded.descriptor`,
		video.Vid, video.SourceURL, video.Title, video.Duration, video.SegmentCount, video.Descriptor,
	)
	if err != nil {
		return fmt.Errorf("保存视频信息失败: %w", err)
	}
	return nil
}

// BatchSaveDanmu 分块事务批量写入弹幕，重复弹幕忽略；返回实际新增条数
func BatchSaveDanmu(items []*Danmu) (int, error) {
	log := logger.GetLogger()
	if len(items) == 0 {
		log.Warn("警告: 尝试保存空弹幕列表")
		return 0, nil
	}

	const chunkSize = 1000      // 每组事务处理的弹幕数
	const batchInsertSize = 100 // 每条SQL插入的最大弹幕数
	startTime := time.Now()
	log.Infof("开始批量保存 %d 条弹幕...", len(items))

	inserted := 0
	errorCount := 0
	total := len(items)
	for chunkStart := 0; chunkStart < total; chunkStart += chunkSize {
		chunkEnd := min(chunkStart+chunkSize, total)
		chunk := items[chunkStart:chunkEnd]

		tx, err := db.Begin()
		if err != nil {
			return inserted, fmt.Errorf("开始事务失败: %w", err)
		}

		for batchStart := 0; batchStart < len(chunk); batchStart += batchInsertSize {
			batchEnd := min(batchStart+batchInsertSize, len(chunk))
			batch := chunk[batchStart:batchEnd]

			valueStrings := make([]string, 0, len(batch))
			valueArgs := make([]interface{}, 0, len(batch)*8)
			for _, d := range batch {
				valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?, ?)")
				valueArgs = append(valueArgs, d.Vid, d.Text, d.Time, d.Color, d.Type, d.FontSize, d.Sender, d.Date)
			}
			insertSQL := "INSERT OR IGNORE INTO danmu " +
				"(vid, text, time_ms, color, type, font_size, sender, date) VALUES " +
				strings.Join(valueStrings, ",")
			res, err := tx.Exec(insertSQL, valueArgs...)
			if err != nil {
				errorCount += len(batch)
				log.Errorf("批量插入弹幕失败 (index: %d-%d): %v", chunkStart+batchStart, chunkStart+batchEnd-1, err)
				continue
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		if err := tx.Commit(); err != nil {
			return inserted, fmt.Errorf("提交事务失败: %w", err)
		}
		log.Debugf("已处理 %d/%d 条弹幕", chunkEnd, total)
	}

	log.Infof("批量保存完成! 总计: %d, 新增: %d, 失败: %d, 耗时: %.2f秒",
		total, inserted, errorCount, time.Since(startTime).Seconds())

	if errorCount > 0 {
		return inserted, fmt.Errorf("部分弹幕保存失败 (%d/%d)", errorCount, total)
	}
	return inserted, nil
}

// UpdateDanmuStats 重新统计视频的弹幕数
func UpdateDanmuStats(vid string) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO danmu_stats (vid, danmu_count, last_updated)
		SELECT ?, COUNT(*), CURRENT_TIMESTAMP FROM danmu WHERE vid = ?`,
		vid, vid,
	)
	if err != nil {
		return fmt.Errorf("更新弹幕统计失败: %w", err)
	}
	return nil
}

func normalizePage(page, pageSize, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	return page, pageSize
}

// 获取分页视频列表，searchTerm 按标题模糊匹配
func GetVideosPaginated(page, perPage int, searchTerm string) ([]Video, int, error) {
	page, perPage = normalizePage(page, perPage, 10)
	offset := (page - 1) * perPage

	var args []interface{}
	where := ""
	if searchTerm != "" {
		where = " WHERE v.title LIKE ?"
		args = append(args, "%"+searchTerm+"%")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM video_info v"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("获取视频总数失败: %w", err)
	}

	query := `
		SELECT v.vid, IFNULL(v.source_url, ''), v.title, v.duration, v.segment_count,
			IFNULL(v.descriptor, ''), IFNULL(s.danmu_count, 0)
		FROM video_info v
		LEFT JOIN danmu_stats s ON v.vid = s.vid` + where +
		" ORDER BY v.created_at DESC, v.rowid DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询视频失败: %w", err)
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.Vid, &v.SourceURL, &v.Title, &v.Duration, &v.SegmentCount, &v.Descriptor, &v.DanmuCount); err != nil {
			return nil, 0, fmt.Errorf("扫描视频行失败: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历视频行失败: %w", err)
	}
	return videos, total, nil
}

// GetVideoByVid 获取视频详情，不存在时返回 nil, nil
func GetVideoByVid(vid string) (*Video, error) {
	row := db.QueryRow(`
		SELECT v.vid, IFNULL(v.source_url, ''), v.title, v.duration, v.segment_count,
			IFNULL(v.descriptor, ''), IFNULL(s.danmu_count, 0)
		FROM video_info v
		LEFT JOIN danmu_stats s ON v.vid = s.vid
		WHERE v.vid = ?`, vid)

	var v Video
	if err := row.Scan(&v.Vid, &v.SourceURL, &v.Title, &v.Duration, &v.SegmentCount, &v.Descriptor, &v.DanmuCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询视频详情失败: %w", err)
	}
	return &v, nil
}

// GetDanmuByVid 按出现时间分页读取弹幕，keyword 非空时按内容过滤
func GetDanmuByVid(vid string, page, pageSize int, keyword string) ([]Danmu, int, error) {
	page, pageSize = normalizePage(page, pageSize, 50)
	offset := (page - 1) * pageSize

	where := " WHERE vid = ?"
	args := []interface{}{vid}
	if keyword != "" {
		where += " AND text LIKE ?"
		args = append(args, "%"+keyword+"%")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM danmu"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("获取弹幕总数失败: %w", err)
	}

	query := `SELECT id, vid, text, time_ms, color, type, font_size, IFNULL(sender, ''), IFNULL(date, 0)
		FROM danmu` + where + " ORDER BY time_ms ASC, id ASC LIMIT ? OFFSET ?"
	args = append(args, pageSize, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询弹幕失败: %w", err)
	}
	defer rows.Close()

	list := []Danmu{}
	for rows.Next() {
		var d Danmu
		if err := rows.Scan(&d.ID, &d.Vid, &d.Text, &d.Time, &d.Color, &d.Type, &d.FontSize, &d.Sender, &d.Date); err != nil {
			return nil, 0, fmt.Errorf("扫描弹幕行失败: %w", err)
		}
		d.FormattedTime = formatPlayTime(d.Time)
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历弹幕行失败: %w", err)
	}
	return list, total, nil
}

// formatPlayTime 把毫秒出现时间格式化为 mm:ss
func formatPlayTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// 视频结构体
type Video struct {
	Vid          string  `json:"vid"`
	SourceURL    string  `json:"source_url,omitempty"`
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	SegmentCount int     `json:"segment_count"`
	Descriptor   string  `json:"descriptor,omitempty"`
	DanmuCount   int     `json:"danmu_count"`
}

// 弹幕结构体
type Danmu struct {
	ID            int64  `json:"id"`
	Vid           string `json:"vid"`
	Text          string `json:"text"`
	Time          int64  `json:"time"` // 出现时间（毫秒）
	Color         int    `json:"color"`
	Type          string `json:"type"`
	FontSize      int    `json:"font_size"`
	Sender        string `json:"sender"`
	Date          int64  `json:"date"`
	FormattedTime string `json:"formatted_time,omitempty"`
}
