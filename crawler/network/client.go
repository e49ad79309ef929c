// network 包封装弹幕源使用的 HTTP 访问：单次 GET 与保序的批量 GET
package network

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"youku-danmu-go/logger"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	defaultWorkers = 8
)

// NetworkError 表示一次请求在传输层或 HTTP 层失败，Error() 给出可直接展示的信息
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "network error"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "network error: " + e.URL
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BatchResult 是批量请求中单个请求的结果，Err 为空表示成功
type BatchResult struct {
	Err  string
	Body []byte
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Workers 限制批量请求的并发数
	Workers int
	// RatePerSecond 大于 0 时限制请求发起速率
	RatePerSecond float64
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	workers int
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	rc := resty.New()
	rc.SetTimeout(timeout)
	// 不做重试：失败直接交给调用方
	rc.SetRetryCount(0)
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	c := &Client{http: rc, workers: workers}
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}

// Get 发起单次 GET，headers 覆盖客户端默认请求头
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{URL: rawURL, Err: err}
		}
	}

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	logger.GetLogger().Debugf("GET %s query=%s", rawURL, query.Encode())
	resp, err := req.Get(rawURL)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	if resp.IsError() {
		return nil, &NetworkError{URL: rawURL, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}

// GetBatch 并发执行一组 GET，全部完成后返回；结果与请求一一对应、顺序一致。
// 单个请求失败只记录在对应的 BatchResult.Err 中。
func (c *Client) GetBatch(ctx context.Context, urls []string, queries []url.Values) []BatchResult {
	results := make([]BatchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for i := range urls {
		var query url.Values
		if i < len(queries) {
			query = queries[i]
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, rawURL string, query url.Values) {
			defer func() {
				if r := recover(); r != nil {
					logger.GetLogger().Errorf("批量请求 PANIC (index=%d): %v\n%s", idx, r, string(debug.Stack()))
					results[idx] = BatchResult{Err: fmt.Sprintf("panic: %v", r)}
				}
				<-sem
				wg.Done()
			}()

			body, err := c.Get(ctx, rawURL, query, nil)
			if err != nil {
				results[idx] = BatchResult{Err: errorText(err)}
				return
			}
			results[idx] = BatchResult{Body: body}
		}(i, urls[i], query)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != "" {
			failed++
		}
	}
	logger.GetLogger().Debugf("批量请求完成: 共 %d 个, 失败 %d 个", len(results), failed)
	return results
}

func errorText(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "unknown error"
	}
	return msg
}
