// htmlsax 提供一个只进不退的 HTML 游标，用于在大页面上做单遍抽取，不构建 DOM 树。
//
// 游标停在"节点"（开始标签或自闭合标签）上，位置以源文本的字节偏移表示，
// 调用方可以直接用偏移做窗口判断。
package htmlsax

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

type Parser struct {
	src []byte

	z        *html.Tokenizer
	base     int // 当前 tokenizer 在 src 中的起始偏移
	consumed int // tokenizer 已消费的字节数（相对 base）

	pos   int
	name  string
	attrs map[string]string
	end   bool
}

func NewParser(src string) *Parser {
	p := &Parser{src: []byte(src)}
	p.SeekTo(0)
	return p
}

// SeekTo 把游标移到 offset 处，并读取从该处开始的第一个节点
func (p *Parser) SeekTo(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(p.src) {
		offset = len(p.src)
	}
	p.base = offset
	p.consumed = 0
	p.z = html.NewTokenizer(bytes.NewReader(p.src[offset:]))
	p.end = false
	p.ReadNext()
}

// ReadNext 前进到下一个节点；到达文档末尾时返回 false
func (p *Parser) ReadNext() bool {
	if p.end {
		return false
	}
	for {
		tt := p.z.Next()
		start := p.base + p.consumed
		p.consumed += len(p.z.Raw())

		switch tt {
		case html.ErrorToken:
			p.end = true
			p.pos = len(p.src)
			p.name = ""
			p.attrs = nil
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			p.pos = start
			p.readTag()
			return true
		}
	}
}

func (p *Parser) readTag() {
	name, hasAttr := p.z.TagName()
	p.name = string(name)
	p.attrs = make(map[string]string)
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = p.z.TagAttr()
		k := string(key)
		if _, ok := p.attrs[k]; !ok {
			p.attrs[k] = string(val)
		}
	}
}

// ReadContentUntil 读取当前节点之后、下一个 </tag> 之前的原始内容（包含内部标签）。
// 读取后游标停在该结束标签处，不再指向任何节点。
func (p *Parser) ReadContentUntil(tag string) string {
	if p.end {
		return ""
	}
	tag = strings.ToLower(tag)
	var sb strings.Builder
	for {
		tt := p.z.Next()
		start := p.base + p.consumed
		raw := p.z.Raw()
		p.consumed += len(raw)

		if tt == html.ErrorToken {
			p.end = true
			p.pos = len(p.src)
			p.name = ""
			p.attrs = nil
			return sb.String()
		}
		if tt == html.EndTagToken {
			// TagName 会原地改写 raw，先留一份
			text := string(raw)
			name, _ := p.z.TagName()
			if string(name) == tag {
				p.pos = start
				p.name = ""
				p.attrs = nil
				return sb.String()
			}
			sb.WriteString(text)
			continue
		}
		sb.Write(raw)
	}
}

// CurrentNode 返回当前节点的标签名（小写），不在节点上时为空
func (p *Parser) CurrentNode() string {
	return p.name
}

// CurrentNodeProperty 返回当前节点的属性值，不存在时为空
func (p *Parser) CurrentNodeProperty(attr string) string {
	if p.attrs == nil {
		return ""
	}
	return p.attrs[strings.ToLower(attr)]
}

// CurPos 返回当前节点在源文本中的字节偏移
func (p *Parser) CurPos() int {
	return p.pos
}

func (p *Parser) AtEnd() bool {
	return p.end
}
