package planner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

func TestParsePlan_BareJSON(t *testing.T) {
	got, err := parsePlan(`{"plan":"trace the metric step-by-step","sub_questions":["what distance metric is used?"]}`)
	if err != nil {
		t.Fatalf("parsePlan failed: %v", err)
	}
	want := &model.Plan{
		Plan:         "trace the metric step-by-step",
		SubQuestions: []string{"what distance metric is used?"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePlan_MarkdownFence(t *testing.T) {
	got, err := parsePlan("```json\n{\"plan\":\"p\",\"sub_questions\":[\"q1\",\"  q2  \"]}\n```")
	if err != nil {
		t.Fatalf("parsePlan with fences failed: %v", err)
	}
	if len(got.SubQuestions) != 2 || got.SubQuestions[1] != "q2" {
		t.Errorf("sub_questions = %v, want trimmed [q1 q2]", got.SubQuestions)
	}
}

func TestParsePlan_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"prose", "Here is my plan: first I will search the index."},
		{"prose around json", `Sure! {"plan":"p","sub_questions":["q"]} hope this helps`},
		{"extra field", `{"plan":"p","sub_questions":["q"],"notes":"x"}`},
		{"empty plan", `{"plan":"  ","sub_questions":["q"]}`},
		{"no sub questions", `{"plan":"p","sub_questions":[]}`},
		{"blank sub question", `{"plan":"p","sub_questions":["q",""]}`},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parsePlan(tc.content)
			if !errors.Is(err, qaerr.ErrMalformedAgentOutput) {
				t.Errorf("parsePlan(%q) err = %v, want ErrMalformedAgentOutput", tc.content, err)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	if got := stripFences("```\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Errorf("stripFences = %q", got)
	}
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("stripFences on bare json = %q", got)
	}
}
