package comm

import (
	"context"
	"io"
	"time"

	"github.com/HildaM/logs/slog"

	"github.com/cloudwego/eino/schema"
	"github.com/hildam/paper-qa-go/entity/conf"
)

// 配置未加载时的缺省值
const (
	defaultMaxLimitToken = 60000
	defaultStageTimeout  = 60 * time.Second
)

// StageTimeout 单阶段外部调用的超时时间
func StageTimeout() time.Duration {
	if cfg := conf.GetCfg(); cfg != nil && cfg.Setting.StageTimeoutSec > 0 {
		return time.Duration(cfg.Setting.StageTimeoutSec) * time.Second
	}
	return defaultStageTimeout
}

// ModifyInputFunc 输入消息修改函数，超长内容截断保留最新部分
func ModifyInputFunc(ctx context.Context, inputList []*schema.Message) []*schema.Message {
	maxLimit := defaultMaxLimitToken
	if cfg := conf.GetCfg(); cfg != nil && cfg.Setting.MaxLimitToken > 0 {
		maxLimit = cfg.Setting.MaxLimitToken
	}

	sum := 0
	for _, input := range inputList {
		if input == nil {
			slog.Debug("ModifyInputFunc debug, input is nil")
			continue
		}

		length := len(input.Content)
		if length >= maxLimit {
			slog.Debug("ModifyInputFunc debug, input content length is %d, max limit token is %d", length, maxLimit)
			// 截断, 取后半段部分的最新信息
			input.Content = input.Content[length-maxLimit:]
		}

		sum += len(input.Content)
	}

	slog.Debug("ModifyInputFunc debug, input content sum length is %d", sum)
	return inputList
}

// ToolCallChecker 工具调用检查函数
func ToolCallChecker(ctx context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()

	// 遍历流式响应中的所有消息
	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			// 流结束，未发现工具调用
			slog.Debug("toolCallChecker debug, stream message eof")
			return false, nil
		}
		if err != nil {
			slog.Error("toolCallChecker failed, recv stream message failed, err = %v", err)
			return false, err
		}

		// 检查当前消息是否包含工具调用
		if len(msg.ToolCalls) > 0 {
			return true, nil
		}
	}
}
