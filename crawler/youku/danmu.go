package youku

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"

	"github.com/tidwall/gjson"
)

const (
	defaultPos = 3

	posScroll = 3
	posBottom = 4
	posTop    = 6
)

// DownloadBySourceURL 按紧凑描述 "id:<id>;length:<n>" 直接拉取弹幕，跳过页面解析
func (p *Provider) DownloadBySourceURL(ctx context.Context, descriptor string, dst []model.Comment) ([]model.Comment, error) {
	id, length, err := ParseDescriptor(descriptor)
	if err != nil {
		logger.GetLogger().Warnf("来源描述解析失败: %v", err)
		return dst, err
	}
	return p.fetchAllDanmu(ctx, id, length, dst), nil
}

// segmentRequests 构造 0..segments（含）共 segments+1 个分页请求，最后一个覆盖不足一分钟的尾段
func segmentRequests(baseURL, id string, segments int) ([]string, []url.Values) {
	urls := make([]string, 0, segments+1)
	queries := make([]url.Values, 0, segments+1)
	for i := 0; i <= segments; i++ {
		q := url.Values{}
		q.Set("mcount", "1")
		q.Set("ct", "1001")
		q.Set("iid", id)
		q.Set("mat", strconv.Itoa(i))
		urls = append(urls, baseURL)
		queries = append(queries, q)
	}
	return urls, queries
}

// fetchAllDanmu 一次性批量请求所有分段；失败的分段整体跳过
func (p *Provider) fetchAllDanmu(ctx context.Context, id string, segments int, dst []model.Comment) []model.Comment {
	log := logger.GetLogger()
	urls, queries := segmentRequests(p.opt.DanmuURL, id, segments)
	log.Infof("批量拉取弹幕: id=%s, 分段请求 %d 个", id, len(urls))

	results := p.client.GetBatch(ctx, urls, queries)
	for i, r := range results {
		if r.Err != "" {
			log.Warnf("分段 %d 请求失败，跳过: %s", i, r.Err)
			continue
		}
		before := len(dst)
		dst = decodeDanmuPage(r.Body, dst)
		log.Debugf("分段 %d 解析出 %d 条弹幕", i, len(dst)-before)
	}
	return dst
}

// decodeDanmuPage 解析一页弹幕接口返回，逐条校验，不合格的条目直接丢弃
func decodeDanmuPage(body []byte, dst []model.Comment) []model.Comment {
	if !gjson.ValidBytes(body) {
		logger.GetLogger().Debugf("弹幕分页不是合法 JSON，跳过")
		return dst
	}
	list := gjson.GetBytes(body, "result")
	if !list.IsArray() {
		return dst
	}
	list.ForEach(func(_, entry gjson.Result) bool {
		if c, err := decodeDanmu(entry); err == nil {
			dst = append(dst, c)
		} else {
			logger.GetLogger().Debugf("丢弃弹幕: %v", err)
		}
		return true
	})
	return dst
}

var errFieldType = errors.New("missing or mistyped field")

func decodeDanmu(entry gjson.Result) (model.Comment, error) {
	content := entry.Get("content")
	if content.Type != gjson.String {
		return model.Comment{}, fmt.Errorf("%w: content", errFieldType)
	}
	createTime := entry.Get("createtime")
	if createTime.Type != gjson.Number {
		return model.Comment{}, fmt.Errorf("%w: createtime", errFieldType)
	}
	uid := entry.Get("uid")
	if uid.Type != gjson.Number {
		return model.Comment{}, fmt.Errorf("%w: uid", errFieldType)
	}
	playAt := entry.Get("playat")
	if playAt.Type != gjson.Number {
		return model.Comment{}, fmt.Errorf("%w: playat", errFieldType)
	}

	pos, color := parseProperties(entry.Get("propertis"))

	c := model.Comment{
		Text:     content.String(),
		Time:     playAt.Int(),
		Color:    color,
		Type:     displayTypeOf(pos),
		FontSize: model.FontNormal,
		Sender:   "[" + ProviderName + "]" + strconv.FormatInt(uid.Int(), 10),
		Date:     int64(createTime.Float() / 1000),
	}
	c.OriginTime = c.Time
	return c, nil
}

// parseProperties 解析样式字段（通常是 JSON 编码的字符串），任何异常都回落到默认值
func parseProperties(raw gjson.Result) (pos, color int) {
	pos, color = defaultPos, model.DefaultColor

	var props gjson.Result
	switch {
	case raw.Type == gjson.String:
		if !gjson.Valid(raw.Str) {
			return
		}
		props = gjson.Parse(raw.Str)
	case raw.IsObject():
		props = raw
	default:
		return
	}
	if !props.IsObject() {
		return
	}

	if v, ok := intValue(props.Get("pos")); ok {
		pos = v
	}
	if v, ok := intValue(props.Get("color")); ok {
		color = v
	}
	return
}

// intValue 接受数字或数字字符串
func intValue(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		n := v.Int()
		if n < 0 {
			return 0, false
		}
		return int(n), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func displayTypeOf(pos int) model.DisplayType {
	switch pos {
	case posScroll:
		return model.Scroll
	case posBottom:
		return model.Bottom
	case posTop:
		return model.Top
	default:
		return model.Scroll
	}
}
