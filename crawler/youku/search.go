package youku

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"youku-danmu-go/crawler/htmlsax"
	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"
)

const (
	groupTypeVideo  = "1005" // 单个视频
	groupTypeSeries = "1027" // 多集合集

	marginMarker = `<div style="margin-bottom`
)

var (
	searchAnchorRe = regexp.MustCompile(`<div type="(\d+)" data-name="m_pos">`)
	markupTagRe    = regexp.MustCompile(`<.*?>`)
)

// Search 在优酷搜索关键词并返回候选条目。
// 网络失败时结果带错误信息且不做解析；解析本身不会让整个调用失败。
func (p *Provider) Search(ctx context.Context, keyword string) *model.AccessResult {
	log := logger.GetLogger()
	result := &model.AccessResult{ProviderID: p.ID()}

	searchURL := fmt.Sprintf(p.opt.SearchURL, url.PathEscape(keyword))
	log.Infof("搜索优酷: keyword=%s", keyword)

	body, err := p.client.Get(ctx, searchURL, nil, map[string]string{"Cookie": p.opt.Cookie})
	if err != nil {
		log.Errorf("搜索请求失败: %v", err)
		result.Fail(err.Error())
	} else {
		result.Items = scanSearchPage(string(body))
		result.Error = false
		log.Infof("搜索完成: keyword=%s, 候选 %d 个", keyword, len(result.Items))
	}

	p.events.publish(Event{Kind: EventSearchDone, Result: result})
	return result
}

// scanSearchPage 在搜索结果页上按分组锚点逐段扫描。
// 每个分组的内容窗口从锚点开始，到下一个锚点（或 margin-bottom 标记、文档末尾）为止。
func scanSearchPage(page string) []model.SourceItem {
	var items []model.SourceItem
	parser := htmlsax.NewParser(page)

	pos, groupType := findAnchor(page, 0)
	for pos != -1 {
		nextPos, nextType := findAnchor(page, pos+1)
		windowEnd := nextPos
		if windowEnd == -1 {
			windowEnd = len(page)
			if m := strings.Index(page[pos+1:], marginMarker); m != -1 {
				windowEnd = pos + 1 + m
			}
		}

		if groupType == groupTypeVideo || groupType == groupTypeSeries {
			items = append(items, scanGroup(parser, pos, windowEnd, groupType)...)
		}
		pos, groupType = nextPos, nextType
	}
	return items
}

func findAnchor(page string, from int) (int, string) {
	if from >= len(page) {
		return -1, ""
	}
	loc := searchAnchorRe.FindStringSubmatchIndex(page[from:])
	if loc == nil {
		return -1, ""
	}
	return from + loc[0], page[from+loc[2] : from+loc[3]]
}

func scanGroup(parser *htmlsax.Parser, pos, windowEnd int, groupType string) []model.SourceItem {
	parser.SeekTo(pos)
	for !strings.HasPrefix(parser.CurrentNodeProperty("class"), "title_") {
		if !parser.ReadNext() || parser.CurPos() >= windowEnd {
			logger.GetLogger().Debugf("分组 %s@%d 未找到标题节点，跳过", groupType, pos)
			return nil
		}
	}
	// 合集的标题链接比单视频多一层
	if groupType == groupTypeSeries && !parser.ReadNext() {
		return nil
	}

	head := model.SourceItem{ID: normalizeHref(parser.CurrentNodeProperty("href"))}
	head.Title = stripMarkup(parser.ReadContentUntil("a"))
	items := []model.SourceItem{head}

	if groupType != groupTypeSeries {
		return items
	}

	for !parser.AtEnd() && parser.CurPos() < windowEnd {
		if strings.HasPrefix(parser.CurrentNodeProperty("class"), "box-item") {
			if boxTitle := parser.CurrentNodeProperty("title"); boxTitle != "" {
				for parser.CurrentNode() != "a" {
					if !parser.ReadNext() {
						break
					}
				}
				if parser.CurrentNode() == "a" {
					items = append(items, model.SourceItem{
						ID:    normalizeHref(parser.CurrentNodeProperty("href")),
						Title: fmt.Sprintf("%s %s", head.Title, boxTitle),
					})
				}
			}
		}
		parser.ReadNext()
	}
	return items
}

// normalizeHref 为协议相对地址补上 http:
func normalizeHref(href string) string {
	if strings.HasPrefix(href, "//") {
		return "http:" + href
	}
	return href
}

func stripMarkup(s string) string {
	return strings.TrimSpace(markupTagRe.ReplaceAllString(s, ""))
}
