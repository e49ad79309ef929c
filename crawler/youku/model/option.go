package model

import "time"

type Option struct {
	// SearchURL 搜索页地址，包含一个 %s 占位符用于关键词
	SearchURL string
	// DanmuURL 弹幕分页接口地址
	DanmuURL      string
	Cookie        string
	UserAgent     string
	Timeout       time.Duration
	Workers       int
	RatePerSecond float64
}

func NewDefaultOption() *Option {
	return &Option{
		SearchURL: "https://so.youku.com/search_video/q_%s",
		DanmuURL:  "http://service.danmu.youku.com/list",
		Cookie:    "cna=0;",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
		Timeout:   30 * time.Second,
		Workers:   8,
	}
}
