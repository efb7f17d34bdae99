package template

import (
	"context"
	"fmt"

	"github.com/HildaM/logs/slog"
	"github.com/hildam/paper-qa-go/entity/consts"
)

// 各阶段的系统提示词，按阶段名索引。
// 编译进二进制，保证部署与测试不依赖工作目录下的模板文件
var prompts = map[string]string{
	consts.Planner:    plannerPrompt,
	consts.Retriever:  retrieverPrompt,
	consts.Summarizer: summarizerPrompt,
	consts.Verifier:   verifierPrompt,
}

// GetPromptTemplate 加载并返回一个提示模板
func GetPromptTemplate(ctx context.Context, promptName string) (string, error) {
	p, ok := prompts[promptName]
	if !ok {
		msg := fmt.Errorf("GetPromptTemplate failed, unknown prompt name: %s", promptName)
		slog.Error(msg.Error())
		return "", msg
	}
	return p, nil
}
