package backend

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"youku-danmu-go/config"
	"youku-danmu-go/crawler/youku"
	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"
	"youku-danmu-go/utils"
)

const downloadTimeout = 30 * time.Minute

// Manager 串联弹幕源与本地存储：下载、按保存模式落盘、导入数据库
type Manager struct {
	provider  *youku.Provider
	outputDir string
	saveMode  string

	stopEvents func()
}

// NewProviderFromConfig 根据配置构造弹幕源；cookie 文件优先于配置中的 cookie
func NewProviderFromConfig(cfg *config.Config) *youku.Provider {
	opt := model.NewDefaultOption()
	if cfg == nil {
		return youku.NewProvider(opt)
	}

	if cfg.Youku.SearchURL != "" {
		opt.SearchURL = cfg.Youku.SearchURL
	}
	if cfg.Youku.DanmuURL != "" {
		opt.DanmuURL = cfg.Youku.DanmuURL
	}
	if cookie := utils.ReadCookie(cfg.Youku.CookieFile); cookie != "" {
		opt.Cookie = cookie
	} else if cfg.Youku.Cookie != "" {
		opt.Cookie = cfg.Youku.Cookie
	}
	if cfg.Youku.UserAgent != "" {
		opt.UserAgent = cfg.Youku.UserAgent
	}
	if cfg.Youku.TimeoutSeconds > 0 {
		opt.Timeout = time.Duration(cfg.Youku.TimeoutSeconds) * time.Second
	}
	if cfg.Youku.Workers > 0 {
		opt.Workers = cfg.Youku.Workers
	}
	opt.RatePerSecond = cfg.Youku.RatePerSecond
	return youku.NewProvider(opt)
}

func NewManager(provider *youku.Provider, outputDir, saveMode string) *Manager {
	switch saveMode {
	case SaveModeCSVOnly, SaveModeDBOnly, SaveModeCSVAndDB:
	default:
		logger.GetLogger().Warnf("未知保存模式 %q，使用 %s", saveMode, SaveModeCSVAndDB)
		saveMode = SaveModeCSVAndDB
	}
	m := &Manager{provider: provider, outputDir: outputDir, saveMode: saveMode}
	m.watchEvents()
	return m
}

func NewManagerFromConfig(cfg *config.Config) *Manager {
	return NewManager(NewProviderFromConfig(cfg), cfg.Export.OutputDir, cfg.Export.SaveMode)
}

func (m *Manager) Provider() *youku.Provider {
	return m.provider
}

func (m *Manager) SaveMode() string {
	return m.saveMode
}

// Close 停止事件日志
func (m *Manager) Close() {
	if m.stopEvents != nil {
		m.stopEvents()
	}
}

func (m *Manager) watchEvents() {
	events, cancel := m.provider.Subscribe(64)
	m.stopEvents = cancel
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().Errorf("事件监听 PANIC: %v\n%s", r, string(debug.Stack()))
			}
		}()
		for ev := range events {
			log := logger.GetLogger().WithField("event", ev.Kind.String())
			switch {
			case ev.Err != nil:
				log.Warnf("操作失败: %v", ev.Err)
			case ev.Result != nil:
				log.Debugf("操作完成: 条目 %d 个, error=%v", len(ev.Result.Items), ev.Result.Error)
			case ev.Item != nil:
				log.Debugf("操作完成: id=%s, 分段=%d", ev.Item.ID, ev.Item.SegmentCount)
			}
		}
	}()
}

// DownloadAndImport 解析视频页面地址，下载全部弹幕并按保存模式落盘
func (m *Manager) DownloadAndImport(ctx context.Context, rawURL string) (*DownloadReport, error) {
	log := logger.GetLogger()
	rawURL = strings.TrimSpace(rawURL)

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	log.Infof("START DownloadAndImport: url=%s (保存模式: %s)", rawURL, m.saveMode)
	defer log.Infof("END DownloadAndImport: url=%s", rawURL)

	info := m.provider.GetURLInfo(rawURL)
	if info == nil || len(info.Items) == 0 {
		return nil, NewCrawlerError("不支持的视频地址: "+rawURL, ErrorTypeUserInput, ErrorLevelLow)
	}
	item := info.Items[0]

	comments, err := m.provider.DownloadDanmu(ctx, &item, nil)
	if err != nil {
		log.Errorf("弹幕下载失败: %v", err)
		return nil, wrapCrawlerError("弹幕下载失败", err)
	}

	report := &DownloadReport{
		Vid:        item.ID,
		Title:      item.Title,
		SourceURL:  rawURL,
		Descriptor: item.Descriptor(),
		DanmuCount: len(comments),
		SaveMode:   m.saveMode,
	}
	if err := m.persist(item, rawURL, comments, report); err != nil {
		return report, err
	}
	log.Infof("视频 %s 的弹幕处理完成: 共 %d 条, 入库 %d 条", item.ID, report.DanmuCount, report.Imported)
	return report, nil
}

// ImportBySource 按 "id:<id>;length:<n>" 直接下载弹幕并落盘，不访问视频页面
func (m *Manager) ImportBySource(ctx context.Context, descriptor string) (*DownloadReport, error) {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	id, length, err := youku.ParseDescriptor(descriptor)
	if err != nil {
		return nil, wrapCrawlerError("来源描述不合法", err)
	}

	comments, err := m.provider.DownloadBySourceURL(ctx, descriptor, nil)
	if err != nil {
		return nil, wrapCrawlerError("弹幕下载失败", err)
	}

	item := model.SourceItem{ID: id, SegmentCount: length}
	report := &DownloadReport{
		Vid:        id,
		Descriptor: item.Descriptor(),
		DanmuCount: len(comments),
		SaveMode:   m.saveMode,
	}
	if err := m.persist(item, "", comments, report); err != nil {
		return report, err
	}
	log.Infof("来源 %s 的弹幕处理完成: 共 %d 条, 入库 %d 条", descriptor, report.DanmuCount, report.Imported)
	return report, nil
}

func (m *Manager) persist(item model.SourceItem, sourceURL string, comments []model.Comment, report *DownloadReport) error {
	log := logger.GetLogger()

	if m.saveMode != SaveModeCSVOnly {
		if err := saveVideoMetadata(item, sourceURL); err != nil {
			log.Errorf("保存视频信息失败: %v", err)
			return &CrawlerError{Message: err.Error(), Type: ErrorTypeDatabaseError, Level: ErrorLevelHigh, Timestamp: time.Now().Unix(), cause: err}
		}
	}

	if len(comments) == 0 {
		log.Warnf("未获取到弹幕，跳过保存 (vid: %s)", item.ID)
		return nil
	}

	var err error
	switch m.saveMode {
	case SaveModeCSVOnly:
		log.Infof("CSV_ONLY模式处理弹幕: %s", item.ID)
		report.CSVPath, err = m.processCSVOnly(item.ID, comments)
	case SaveModeDBOnly:
		log.Infof("DB_ONLY模式导入弹幕: %s", item.ID)
		report.Imported, err = importDanmuToDB(item.ID, comments)
	default:
		log.Infof("CSV_AND_DB模式处理弹幕: %s", item.ID)
		report.CSVPath, report.Imported, err = m.processCSVAndDB(item.ID, comments)
	}
	return err
}
