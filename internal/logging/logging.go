package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New 构造结构化日志实例，level 非法时回退到 info
// 日志以可注入依赖的形式传给存储与同步层，便于测试替换与过滤
func New(level string) zerolog.Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter 允许指定输出目标，测试里常用 io.Discard
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(parsed).With().Timestamp().Logger()
}
