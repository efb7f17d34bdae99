package serialize

import (
	"fmt"
	"strings"

	"github.com/hildam/paper-qa-go/entity/model"
)

// unknownPage 段落缺失页码元数据时的占位符
const unknownPage = "unknown"

// Chunks 将有序段落序列化为单个 CONTEXT 文本块。
// 纯函数：相同输入字节级一致，总结与校验阶段依赖该格式做溯源。
// 段落从 1 开始编号，每条为 "Chunk N (page=X):" 头加去除首尾空白的正文，
// 条目间以空行分隔；空序列返回空串
func Chunks(passages []model.Passage) string {
	if len(passages) == 0 {
		return ""
	}

	parts := make([]string, 0, len(passages))
	for idx, p := range passages {
		page := p.Page
		if page == "" {
			page = unknownPage
		}
		parts = append(parts, fmt.Sprintf("Chunk %d (page=%s):\n%s", idx+1, page, strings.TrimSpace(p.Content)))
	}
	return strings.Join(parts, "\n\n")
}
