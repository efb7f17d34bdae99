package qaerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 流水线错误分类。任一阶段失败都会中止剩余阶段，
// 调用方通过 errors.Is 区分错误种类并给出不同的提示
var (
	// ErrEmptyInput 调用方错误，问题为空或全空白，在流水线执行前拒绝
	ErrEmptyInput = errors.New("question must be a non-empty string")

	// ErrMalformedAgentOutput Planner 输出无法解析为结构化计划
	ErrMalformedAgentOutput = errors.New("malformed agent output")

	// ErrRetrievalUnavailable 向量索引不可达
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrModelUnavailable 模型服务不可用（凭证错误或服务故障）
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrStageTimeout 阶段外部调用超过时限
	ErrStageTimeout = errors.New("stage timeout")
)

// ClassifyModelErr 将模型调用错误归类为阶段超时或模型不可用。
// 超时与其他故障必须区分：超时等同普通失败中止流水线，
// 而凭证类故障允许边界层转换为降级响应
func ClassifyModelErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStageTimeout
	}
	return ErrModelUnavailable
}

// WrapModelErr 分类并包装一次模型调用错误，保留原始错误文本用于鉴权判断
func WrapModelErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", stage, ClassifyModelErr(err), err)
}

// IsAuthErr 判断模型错误是否为凭证/鉴权问题。
// openai 兼容服务对无效 key 返回 401/invalid_api_key，这里做字符串匹配兜底
func IsAuthErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"401", "invalid_api_key", "incorrect api key", "unauthorized", "no api key"} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
