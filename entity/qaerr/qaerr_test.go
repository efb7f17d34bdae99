package qaerr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyModelErr(t *testing.T) {
	if got := ClassifyModelErr(nil); got != nil {
		t.Errorf("ClassifyModelErr(nil) = %v, want nil", got)
	}
	if got := ClassifyModelErr(context.DeadlineExceeded); !errors.Is(got, ErrStageTimeout) {
		t.Errorf("deadline exceeded classified as %v, want ErrStageTimeout", got)
	}
	if got := ClassifyModelErr(fmt.Errorf("call failed: %w", context.DeadlineExceeded)); !errors.Is(got, ErrStageTimeout) {
		t.Errorf("wrapped deadline classified as %v, want ErrStageTimeout", got)
	}
	if got := ClassifyModelErr(errors.New("connection reset")); !errors.Is(got, ErrModelUnavailable) {
		t.Errorf("generic failure classified as %v, want ErrModelUnavailable", got)
	}
}

func TestWrapModelErr(t *testing.T) {
	if got := WrapModelErr("summarizer", nil); got != nil {
		t.Errorf("WrapModelErr(nil) = %v, want nil", got)
	}

	err := WrapModelErr("summarizer", errors.New("401 Unauthorized"))
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("err = %v, want ErrModelUnavailable", err)
	}
	// 原始错误文本要保留，边界层靠它识别鉴权失败
	if !IsAuthErr(err) {
		t.Errorf("wrapped auth error lost its original text: %v", err)
	}
}

func TestIsAuthErr(t *testing.T) {
	auth := []error{
		errors.New("status 401"),
		errors.New("invalid_api_key: your key is wrong"),
		errors.New("Incorrect API key provided"),
		errors.New("Unauthorized"),
		errors.New("no api key supplied"),
	}
	for _, err := range auth {
		if !IsAuthErr(err) {
			t.Errorf("IsAuthErr(%v) = false, want true", err)
		}
	}

	if IsAuthErr(nil) {
		t.Error("IsAuthErr(nil) = true, want false")
	}
	if IsAuthErr(errors.New("connection refused")) {
		t.Error("connection error misclassified as auth failure")
	}
}
