package youku

import "regexp"

// 支持的视频页面地址，必须整串匹配
var supportedURLRes = []*regexp.Regexp{
	regexp.MustCompile(`^(?:https?://)?v\.youku\.com/v_show/id_[a-zA-Z0-9]+(?:==)?(?:\.html)?$`),
	regexp.MustCompile(`^(?:https?://)?v\.youku\.com/v_nextstage/id_[a-zA-Z0-9]+(?:==)?(?:\.html)?$`),
}

// MatchURL 判断 url 是否为本来源可以直接解析的视频地址
func MatchURL(url string) bool {
	for _, re := range supportedURLRes {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// SupportedURLs 返回示例地址，仅用于展示
func SupportedURLs() []string {
	return []string{
		"https://v.youku.com/v_show/id_XMTI3ODI4OTU1Ng",
		"https://v.youku.com/v_nextstage/id_f82c894261ad11e0bea1.html",
	}
}
