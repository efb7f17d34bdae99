package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hildam/paper-qa-go/agent"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

func TestAnswer_EmptyQuestion(t *testing.T) {
	p := New(agent.Deps{})

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := p.Answer(context.Background(), question, true)
		if !errors.Is(err, qaerr.ErrEmptyInput) {
			t.Errorf("Answer(%q) err = %v, want ErrEmptyInput", question, err)
		}
	}
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{qaerr.ErrEmptyInput, "empty_input"},
		{qaerr.ErrMalformedAgentOutput, "malformed_agent_output"},
		{qaerr.ErrRetrievalUnavailable, "retrieval_unavailable"},
		{qaerr.ErrStageTimeout, "stage_timeout"},
		{qaerr.ErrModelUnavailable, "model_unavailable"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		if got := failureKind(tt.err); got != tt.want {
			t.Errorf("failureKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
