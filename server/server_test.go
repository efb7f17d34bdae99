package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

// fakeAnswerer 返回预设结果或错误
type fakeAnswerer struct {
	result *model.QAResult
	err    error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, usePlanning bool) (*model.QAResult, error) {
	return f.result, f.err
}

// fakeIndexer 记录调用次数
type fakeIndexer struct {
	calls int
	count int
	err   error
}

func (f *fakeIndexer) IndexPDF(ctx context.Context, data []byte, filename string) (int, error) {
	f.calls++
	return f.count, f.err
}

func newTestEngine(qa Answerer, ix Indexer) *route.Engine {
	e := route.NewEngine(config.NewOptions([]config.Option{}))
	registerRoutes(e, qa, ix)
	return e
}

func postQA(t *testing.T, e *route.Engine, body string) *ut.ResponseRecorder {
	t.Helper()
	return ut.PerformRequest(e, http.MethodPost, "/qa",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestHandleQA_Success(t *testing.T) {
	qa := &fakeAnswerer{result: &model.QAResult{
		Answer:  "Cosine similarity between embeddings.",
		Context: "Chunk 1 (page=3):\ncosine similarity is commonly used",
	}}
	e := newTestEngine(qa, &fakeIndexer{})

	w := postQA(t, e, `{"question": "What metric is used?"}`)
	resp := w.Result()
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode())
	}

	var out model.QAResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Answer != qa.result.Answer {
		t.Errorf("answer = %q, want %q", out.Answer, qa.result.Answer)
	}
	if out.Degraded {
		t.Error("successful run marked degraded")
	}
}

func TestHandleQA_DegradedOnAuthFailure(t *testing.T) {
	// 凭证类模型故障降级为 200，带 degraded 标记与可读答复
	qa := &fakeAnswerer{err: fmt.Errorf("summarizer: %w: 401 Unauthorized", qaerr.ErrModelUnavailable)}
	e := newTestEngine(qa, &fakeIndexer{})

	w := postQA(t, e, `{"question": "What metric is used?"}`)
	resp := w.Result()
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d, want degraded 200", resp.StatusCode())
	}

	var out model.QAResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !out.Degraded {
		t.Error("auth failure response not marked degraded")
	}
	if out.Answer == "" {
		t.Error("degraded response carries no readable answer")
	}
}

func TestHandleQA_ModelDownIsNotDegraded(t *testing.T) {
	// 非凭证类模型故障不降级，按错误种类映射状态码
	qa := &fakeAnswerer{err: fmt.Errorf("summarizer: %w: connection reset", qaerr.ErrModelUnavailable)}
	e := newTestEngine(qa, &fakeIndexer{})

	resp := postQA(t, e, `{"question": "What metric is used?"}`).Result()
	if resp.StatusCode() != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode())
	}
}

func TestHandleQA_RetrievalDown(t *testing.T) {
	qa := &fakeAnswerer{err: fmt.Errorf("%w: connection refused", qaerr.ErrRetrievalUnavailable)}
	e := newTestEngine(qa, &fakeIndexer{})

	resp := postQA(t, e, `{"question": "What metric is used?"}`).Result()
	if resp.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode())
	}
}

func TestHandleQA_EmptyQuestion(t *testing.T) {
	qa := &fakeAnswerer{err: qaerr.ErrEmptyInput}
	e := newTestEngine(qa, &fakeIndexer{})

	resp := postQA(t, e, `{"question": "   "}`).Result()
	if resp.StatusCode() != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode())
	}
}

func TestHandleIndexPDF_RejectsNonPDF(t *testing.T) {
	ix := &fakeIndexer{}
	e := newTestEngine(&fakeAnswerer{}, ix)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("plain text, not a pdf"))
	mw.Close()

	w := ut.PerformRequest(e, http.MethodPost, "/index-pdf",
		&ut.Body{Body: &buf, Len: buf.Len()},
		ut.Header{Key: "Content-Type", Value: mw.FormDataContentType()})
	resp := w.Result()

	if resp.StatusCode() != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 before any parsing", resp.StatusCode())
	}
	if ix.calls != 0 {
		t.Error("indexer invoked for a rejected non-PDF upload")
	}
}

func TestStatusForErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty input", qaerr.ErrEmptyInput, http.StatusBadRequest},
		{"index down", qaerr.ErrRetrievalUnavailable, http.StatusServiceUnavailable},
		{"stage timeout", qaerr.ErrStageTimeout, http.StatusGatewayTimeout},
		{"malformed plan", qaerr.ErrMalformedAgentOutput, http.StatusBadGateway},
		{"model down", qaerr.ErrModelUnavailable, http.StatusBadGateway},
		{"wrapped", fmt.Errorf("planner: %w: boom", qaerr.ErrModelUnavailable), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForErr(tt.err); got != tt.want {
				t.Errorf("statusForErr(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
