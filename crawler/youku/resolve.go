package youku

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"

	"github.com/PuerkitoBio/goquery"
)

// ErrDecodeFailed 表示视频页面中找不到所需的字段
var ErrDecodeFailed = errors.New("Decode Failed")

var (
	videoIDRe   = regexp.MustCompile(`\bvideoId: '(\d+)'`)
	secondsRe   = regexp.MustCompile(`\bseconds: '([\d.]+)'`)
	metaTitleRe = regexp.MustCompile(`<meta name="title" content="(.*?)" />`)
)

// DownloadDanmu 解析视频页面得到视频 id 与时长（写回 item），再拉取全部弹幕追加到 dst。
// 出错时返回原样的 dst，不追加任何弹幕。
func (p *Provider) DownloadDanmu(ctx context.Context, item *model.SourceItem, dst []model.Comment) ([]model.Comment, error) {
	out, err := p.downloadDanmu(ctx, item, dst)

	var snapshot *model.SourceItem
	if item != nil {
		cp := *item
		snapshot = &cp
	}
	p.events.publish(Event{Kind: EventDownloadDone, Item: snapshot, Err: err})
	return out, err
}

func (p *Provider) downloadDanmu(ctx context.Context, item *model.SourceItem, dst []model.Comment) ([]model.Comment, error) {
	log := logger.GetLogger()
	if item == nil {
		return dst, errors.New("nil source item")
	}

	log.Infof("解析视频页面: %s", item.ID)
	body, err := p.client.Get(ctx, item.ID, nil, nil)
	if err != nil {
		log.Errorf("获取视频页面失败: %v", err)
		return dst, err
	}

	if err := resolveVideo(string(body), item); err != nil {
		log.Warnf("解析视频页面失败: %s", item.ID)
		return dst, err
	}
	log.Infof("视频解析完成: id=%s, 时长=%.1fs, 分段=%d, 标题=%s", item.ID, item.Duration, item.SegmentCount, item.Title)

	before := len(dst)
	dst = p.fetchAllDanmu(ctx, item.ID, item.SegmentCount, dst)
	log.Infof("视频 %s 共获取 %d 条弹幕", item.ID, len(dst)-before)
	return dst, nil
}

// resolveVideo 从视频页面提取视频 id、时长以及（可选的）标题
func resolveVideo(page string, item *model.SourceItem) error {
	m := videoIDRe.FindStringSubmatch(page)
	if m == nil {
		return ErrDecodeFailed
	}
	videoID := m[1]

	m = secondsRe.FindStringSubmatch(page)
	if m == nil {
		return ErrDecodeFailed
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ErrDecodeFailed
	}

	item.ID = videoID
	item.SetDuration(seconds)
	if item.Title == "" {
		item.Title = pageTitle(page)
	}
	return nil
}

// pageTitle 尽力获取标题，取不到返回空
func pageTitle(page string) string {
	if m := metaTitleRe.FindStringSubmatch(page); m != nil {
		return m[1]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	if title, ok := doc.Find(`meta[name="title"]`).First().Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
