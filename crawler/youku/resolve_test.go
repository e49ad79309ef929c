package youku

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"youku-danmu-go/crawler/network"
	"youku-danmu-go/crawler/youku/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoPage(videoID, seconds, title string) string {
	return `<html><head><meta name="title" content="` + title + `" /><title>页面标题</title></head>
<body><script>
window.PageConfig = {
  videoId: '` + videoID + `',
  seconds: '` + seconds + `',
};
</script></body></html>`
}

func TestResolveVideo(t *testing.T) {
	item := &model.SourceItem{ID: "https://v.youku.com/v_show/id_abc.html"}
	require.NoError(t, resolveVideo(videoPage("123456", "125.3", "好看的视频"), item))

	assert.Equal(t, "123456", item.ID)
	assert.InDelta(t, 125.3, item.Duration, 1e-9)
	assert.Equal(t, 2, item.SegmentCount)
	assert.Equal(t, "好看的视频", item.Title)
}

func TestResolveVideo_KeepsExistingTitle(t *testing.T) {
	item := &model.SourceItem{ID: "u", Title: "搜索结果标题"}
	require.NoError(t, resolveVideo(videoPage("1", "59", "页面"), item))
	assert.Equal(t, "搜索结果标题", item.Title)
	assert.Equal(t, 0, item.SegmentCount)
}

func TestResolveVideo_MissingFields(t *testing.T) {
	item := &model.SourceItem{ID: "u"}
	assert.ErrorIs(t, resolveVideo(`<html>seconds: '10'</html>`, item), ErrDecodeFailed)
	assert.ErrorIs(t, resolveVideo(`<html>videoId: '1'</html>`, item), ErrDecodeFailed)
	assert.Equal(t, "u", item.ID)
}

func TestPageTitle_Fallbacks(t *testing.T) {
	assert.Equal(t, "meta", pageTitle(`<meta name="title" content="meta" />`))
	assert.Equal(t, "attr order", pageTitle(`<html><head><meta content="attr order" name="title"></head></html>`))
	assert.Equal(t, "标题", pageTitle(`<html><head><title> 标题 </title></head></html>`))
	assert.Empty(t, pageTitle(`<html></html>`))
}

func TestDownloadDanmu(t *testing.T) {
	ds := &danmuServer{pages: map[string]string{
		"0": danmuPage("a"),
		"1": danmuPage("b"),
		"2": danmuPage("c"),
	}}
	mux := http.NewServeMux()
	mux.Handle("/list", ds)
	mux.HandleFunc("/v_show/id_abc.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(videoPage("777", "125", "T")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(srv.URL)
	events, cancel := p.Subscribe(2)
	defer cancel()

	item := &model.SourceItem{ID: srv.URL + "/v_show/id_abc.html"}
	existing := []model.Comment{{Text: "old"}}
	got, err := p.DownloadDanmu(context.Background(), item, existing)
	require.NoError(t, err)

	assert.Equal(t, "777", item.ID)
	assert.Equal(t, 2, item.SegmentCount)
	assert.Equal(t, "T", item.Title)
	assert.Equal(t, []string{"0", "1", "2"}, ds.sortedMats())
	for _, iid := range ds.iids {
		assert.Equal(t, "777", iid)
	}

	require.Len(t, got, 4)
	assert.Equal(t, "old", got[0].Text)
	assert.Equal(t, "a", got[1].Text)
	assert.Equal(t, "c", got[3].Text)

	ev := <-events
	assert.Equal(t, EventDownloadDone, ev.Kind)
	assert.NoError(t, ev.Err)
	require.NotNil(t, ev.Item)
	assert.Equal(t, *item, *ev.Item)
}

func TestDownloadDanmu_ShortVideo(t *testing.T) {
	ds := &danmuServer{}
	mux := http.NewServeMux()
	mux.Handle("/list", ds)
	mux.HandleFunc("/v", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(videoPage("5", "59", "T")))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	item := &model.SourceItem{ID: srv.URL + "/v"}
	_, err := newTestProvider(srv.URL).DownloadDanmu(context.Background(), item, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, ds.sortedMats())
}

func TestDownloadDanmu_DecodeFailed(t *testing.T) {
	ds := &danmuServer{}
	mux := http.NewServeMux()
	mux.Handle("/list", ds)
	mux.HandleFunc("/v", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no config here</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(srv.URL)
	events, cancel := p.Subscribe(1)
	defer cancel()

	existing := []model.Comment{{Text: "keep"}}
	item := &model.SourceItem{ID: srv.URL + "/v"}
	got, err := p.DownloadDanmu(context.Background(), item, existing)

	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, "Decode Failed", err.Error())
	assert.Equal(t, existing, got)
	assert.Equal(t, srv.URL+"/v", item.ID)
	assert.Empty(t, ds.sortedMats())

	ev := <-events
	assert.ErrorIs(t, ev.Err, ErrDecodeFailed)
}

func TestDownloadDanmu_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	item := &model.SourceItem{ID: srv.URL + "/v"}
	got, err := newTestProvider(srv.URL).DownloadDanmu(context.Background(), item, nil)

	var ne *network.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusNotFound, ne.StatusCode)
	assert.Empty(t, got)
}

func TestDownloadDanmu_NilItem(t *testing.T) {
	_, err := NewProvider(nil).DownloadDanmu(context.Background(), nil, nil)
	assert.Error(t, err)
}
