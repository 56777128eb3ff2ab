package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/habitloop/internal/model"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ReflectionRenderer 将反思笔记中的自由文本渲染为净化后的 HTML
// 笔记本身原样持久化，渲染只发生在读取侧
type ReflectionRenderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewReflectionRenderer 构造渲染器
func NewReflectionRenderer() *ReflectionRenderer {
	return &ReflectionRenderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render 将一段 Markdown 文本渲染为净化后的 HTML
func (r *ReflectionRenderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render reflection text: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}

// RenderValues 渲染笔记结构里的全部字符串叶子节点
// 笔记结构不透明，解析失败时原样返回
func (r *ReflectionRenderer) RenderValues(content model.Reflection) model.Reflection {
	var decoded any
	if err := json.Unmarshal(content, &decoded); err != nil {
		return content
	}

	rendered, err := json.Marshal(r.renderValue(decoded))
	if err != nil {
		return content
	}
	return model.Reflection(rendered)
}

func (r *ReflectionRenderer) renderValue(value any) any {
	switch v := value.(type) {
	case string:
		rendered, err := r.Render(v)
		if err != nil {
			return v
		}
		return rendered
	case map[string]any:
		for key, item := range v {
			v[key] = r.renderValue(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = r.renderValue(item)
		}
		return v
	default:
		return value
	}
}
