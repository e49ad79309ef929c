package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "data", "danmu.db")))
	t.Cleanup(CloseDB)
}

func TestSaveVideo_Upsert(t *testing.T) {
	setupDB(t)

	require.NoError(t, SaveVideo(&Video{Vid: "42", SourceURL: "https://v.youku.com/v_show/id_a.html", Title: "第一集", Duration: 125, SegmentCount: 2, Descriptor: "id:42;length:2"}))
	// 再次保存时空标题与空地址不覆盖已有值
	require.NoError(t, SaveVideo(&Video{Vid: "42", Duration: 130, SegmentCount: 2, Descriptor: "id:42;length:2"}))

	v, err := GetVideoByVid("42")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "第一集", v.Title)
	assert.Equal(t, "https://v.youku.com/v_show/id_a.html", v.SourceURL)
	assert.Equal(t, 130.0, v.Duration)
	assert.Equal(t, 0, v.DanmuCount)

	missing, err := GetVideoByVid("nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, SaveVideo(&Video{}))
}

func TestBatchSaveDanmu_DedupAndPaging(t *testing.T) {
	setupDB(t)
	require.NoError(t, SaveVideo(&Video{Vid: "42", Title: "t"}))

	var items []*Danmu
	for i := 0; i < 250; i++ {
		items = append(items, &Danmu{
			Vid:    "42",
			Text:   fmt.Sprintf("弹幕%d", i),
			Time:   int64(250-i) * 1000,
			Color:  0xFFFFFF,
			Type:   "scroll",
			Sender: "[Youku]1",
			Date:   1600000000,
		})
	}
	n, err := BatchSaveDanmu(items)
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	// 重复导入不新增
	n, err = BatchSaveDanmu(items[:10])
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, UpdateDanmuStats("42"))
	v, err := GetVideoByVid("42")
	require.NoError(t, err)
	assert.Equal(t, 250, v.DanmuCount)

	page, total, err := GetDanmuByVid("42", 1, 100, "")
	require.NoError(t, err)
	assert.Equal(t, 250, total)
	require.Len(t, page, 100)
	assert.Equal(t, "弹幕249", page[0].Text)
	assert.Equal(t, "00:01", page[0].FormattedTime)
	assert.LessOrEqual(t, page[0].Time, page[1].Time)

	last, _, err := GetDanmuByVid("42", 3, 100, "")
	require.NoError(t, err)
	assert.Len(t, last, 50)

	filtered, total, err := GetDanmuByVid("42", 0, 0, "弹幕24")
	require.NoError(t, err)
	// 弹幕24 与 弹幕240..249
	assert.Equal(t, 11, total)
	assert.Len(t, filtered, 11)
}

func TestBatchSaveDanmu_Empty(t *testing.T) {
	setupDB(t)
	n, err := BatchSaveDanmu(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetVideosPaginated(t *testing.T) {
	setupDB(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, SaveVideo(&Video{Vid: fmt.Sprint(i), Title: fmt.Sprintf("视频%d", i)}))
	}
	require.NoError(t, SaveVideo(&Video{Vid: "x", Title: "特别节目"}))

	videos, total, err := GetVideosPaginated(1, 4, "")
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, videos, 4)

	videos, total, err = GetVideosPaginated(2, 4, "")
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, videos, 2)

	videos, total, err = GetVideosPaginated(1, 10, "特别")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, videos, 1)
	assert.Equal(t, "x", videos[0].Vid)
}

func TestFormatPlayTime(t *testing.T) {
	assert.Equal(t, "00:00", formatPlayTime(-5))
	assert.Equal(t, "01:01", formatPlayTime(61999))
	assert.Equal(t, "120:00", formatPlayTime(7200000))
}
