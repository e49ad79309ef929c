package model

// DisplayType 弹幕的显示方式
type DisplayType int

const (
	Scroll DisplayType = iota
	Top
	Bottom
)

func (t DisplayType) String() string {
	switch t {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "scroll"
	}
}

// ParseDisplayType 与 String 对应，未知值回落到 Scroll
func ParseDisplayType(s string) DisplayType {
	switch s {
	case "top":
		return Top
	case "bottom":
		return Bottom
	default:
		return Scroll
	}
}

type FontSizeLevel int

const (
	FontNormal FontSizeLevel = iota
	FontSmall
	FontLarge
)

const DefaultColor = 0xFFFFFF

// Comment 是与来源无关的弹幕记录，创建后不再修改
type Comment struct {
	Text       string        `json:"text"`
	Time       int64         `json:"time"`        // 出现时间（毫秒）
	OriginTime int64         `json:"origin_time"` // 创建时的 Time
	Color      int           `json:"color"`       // 0xRRGGBB
	Type       DisplayType   `json:"type"`
	FontSize   FontSizeLevel `json:"font_size"`
	Sender     string        `json:"sender"`
	Date       int64         `json:"date"` // 发送时间（Unix 秒）
}
