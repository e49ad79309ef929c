package youku

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"youku-danmu-go/crawler/youku/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="header"><a class="title_fake" href="//not-in-a-group">x</a></div>
<div type="1005" data-name="m_pos">
  <div class="mod-main"><a class="title_abc" href="//v.youku.com/v_show/id_XAAA.html"><em>Hello</em> World</a></div>
</div>
<div type="1027" data-name="m_pos">
  <div class="title_group"></div><a href="https://v.youku.com/v_nextstage/id_abc.html">Series <span>S1</span></a>
  <div class="box-item item-1" title="第1集"><a href="//v.youku.com/v_show/id_XEP1.html">1</a></div>
  <div class="box-item item-2" title=""><a href="//v.youku.com/v_show/id_SKIP.html">x</a></div>
  <div class="other" title="预告"><a href="//v.youku.com/v_show/id_TRAILER.html">t</a></div>
  <div class="box-item item-3" title="第2集"><span>new</span><a href="//v.youku.com/v_show/id_XEP2.html">2</a></div>
</div>
<div type="9999" data-name="m_pos"><a class="title_x" href="//ignored">ignored</a></div>
<div style="margin-bottom:10px"></div>
</body></html>`

func TestScanSearchPage_VideoAndSeries(t *testing.T) {
	items := scanSearchPage(searchPage)

	want := []model.SourceItem{
		{ID: "http://v.youku.com/v_show/id_XAAA.html", Title: "Hello World"},
		{ID: "https://v.youku.com/v_nextstage/id_abc.html", Title: "Series S1"},
		{ID: "http://v.youku.com/v_show/id_XEP1.html", Title: "Series S1 第1集"},
		{ID: "http://v.youku.com/v_show/id_XEP2.html", Title: "Series S1 第2集"},
	}
	assert.Equal(t, want, items)
}

func TestScanSearchPage_LastGroupStopsAtMarginMarker(t *testing.T) {
	page := `<div type="1027" data-name="m_pos">
<div class="title_g"></div><a href="//v.youku.com/v_nextstage/id_g.html">G</a>
<div class="box-item" title="A"><a href="//v.youku.com/v_show/id_A.html">a</a></div>
</div>
<div style="margin-bottom: 20px"></div>
<div class="box-item" title="B"><a href="//v.youku.com/v_show/id_B.html">b</a></div>`

	items := scanSearchPage(page)
	require.Len(t, items, 2)
	assert.Equal(t, "G A", items[1].Title)
	assert.Equal(t, "http://v.youku.com/v_show/id_A.html", items[1].ID)
}

func TestScanSearchPage_MalformedGroupSkipped(t *testing.T) {
	page := `<div type="1005" data-name="m_pos"><div class="no-title">nothing</div></div>
<div type="1005" data-name="m_pos"><a class="title_ok" href="/v/ok">OK</a></div>`

	items := scanSearchPage(page)
	require.Len(t, items, 1)
	assert.Equal(t, "/v/ok", items[0].ID)
	assert.Equal(t, "OK", items[0].Title)
}

func TestScanSearchPage_NoAnchors(t *testing.T) {
	assert.Empty(t, scanSearchPage(`<html><body><p>没有结果</p></body></html>`))
	assert.Empty(t, scanSearchPage(""))
}

func TestNormalizeHref(t *testing.T) {
	assert.Equal(t, "http://example.com/x", normalizeHref("//example.com/x"))
	assert.Equal(t, "https://example.com/x", normalizeHref("https://example.com/x"))
	assert.Equal(t, "/relative", normalizeHref("/relative"))
}

func TestSearch(t *testing.T) {
	var gotPath, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	events, cancel := p.Subscribe(4)
	defer cancel()

	res := p.Search(context.Background(), "进击 巨人")
	require.NotNil(t, res)
	assert.False(t, res.Error)
	assert.Empty(t, res.ErrorInfo)
	assert.Equal(t, ProviderID, res.ProviderID)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, "/search_video/q_进击 巨人", gotPath)
	assert.Equal(t, "cna=0;", gotCookie)

	ev := <-events
	assert.Equal(t, EventSearchDone, ev.Kind)
	assert.Same(t, res, ev.Result)
}

func TestSearch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	res := newTestProvider(srv.URL).Search(context.Background(), "x")
	require.NotNil(t, res)
	assert.True(t, res.Error)
	assert.Contains(t, res.ErrorInfo, "503")
	assert.Empty(t, res.Items)
}
