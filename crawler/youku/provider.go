// youku 包实现优酷弹幕来源：搜索、地址识别、视频解析与分段批量拉取弹幕
package youku

import (
	"youku-danmu-go/crawler/network"
	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"
)

const (
	// ProviderID 是写入每个结果的来源标识
	ProviderID = "Youku"
	// ProviderName 用于拼接发送者 id，例如 "[Youku]12345"
	ProviderName = "Youku"
)

type Provider struct {
	opt    model.Option
	client *network.Client
	events *eventBus
}

func NewProvider(opt *model.Option) *Provider {
	if opt == nil {
		opt = model.NewDefaultOption()
	}
	client := network.NewClient(network.Options{
		Timeout:       opt.Timeout,
		UserAgent:     opt.UserAgent,
		Workers:       opt.Workers,
		RatePerSecond: opt.RatePerSecond,
	})
	return &Provider{
		opt:    *opt,
		client: client,
		events: newEventBus(),
	}
}

func (p *Provider) ID() string {
	return ProviderID
}

// Subscribe 订阅完成通知；调用返回的 cancel 取消订阅并关闭通道
func (p *Provider) Subscribe(buffer int) (<-chan Event, func()) {
	return p.events.subscribe(buffer)
}

// GetEpInfo 把一个已知条目包装成结果，不访问网络
func (p *Provider) GetEpInfo(item *model.SourceItem) *model.AccessResult {
	result := &model.AccessResult{ProviderID: p.ID()}
	if item != nil {
		result.Items = append(result.Items, *item)
	}

	var snapshot *model.SourceItem
	if item != nil {
		cp := *item
		snapshot = &cp
	}
	p.events.publish(Event{Kind: EventEpInfoDone, Result: result, Item: snapshot})
	return result
}

// GetURLInfo 地址不受支持时返回 nil，否则以该地址为 ID 构造条目
func (p *Provider) GetURLInfo(url string) *model.AccessResult {
	if !MatchURL(url) {
		logger.GetLogger().Debugf("不支持的地址: %s", url)
		return nil
	}
	return p.GetEpInfo(&model.SourceItem{ID: url})
}
