package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_table(t *testing.T) {
	item := FactItem{Text: "Recorded in one take", SourceURL: "https://en.wikipedia.org/wiki/X"}

	tests := []struct {
		name string
		in   Verdict
		want Outcome
	}{
		{"rejected without items", Verdict{Accepted: false, Uncertain: false}, Reject},
		{"rejected uncertain without items", Verdict{Accepted: false, Uncertain: true}, Reject},
		{"rejected with items", Verdict{Accepted: false, Items: []FactItem{item}}, AcceptWithWarning},
		{"rejected uncertain with items", Verdict{Accepted: false, Uncertain: true, Items: []FactItem{item}}, AcceptWithWarning},
		{"accepted uncertain with items", Verdict{Accepted: true, Uncertain: true, Items: []FactItem{item}}, AcceptWithWarning},
		{"accepted uncertain without items", Verdict{Accepted: true, Uncertain: true}, AcceptWithWarning},
		{"accepted with items", Verdict{Accepted: true, Items: []FactItem{item}}, Accept},
		{"accepted without items", Verdict{Accepted: true}, Accept},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			assert.Equal(t, tt.want, got.Outcome)
			// Deterministic for the same input.
			assert.Equal(t, got, Classify(tt.in))
		})
	}
}

func TestClassify_rejectReason(t *testing.T) {
	got := Classify(Verdict{Reason: "This is a gaming stream"})
	assert.Equal(t, Reject, got.Outcome)
	assert.Equal(t, "This is a gaming stream", got.Reason)

	got = Classify(Verdict{Reason: "   "})
	assert.Equal(t, FallbackRejectReason, got.Reason)
}

func TestClassify_emptyTextItemsDoNotCount(t *testing.T) {
	got := Classify(Verdict{Items: []FactItem{{Text: ""}, {Text: "  "}}})
	assert.Equal(t, Reject, got.Outcome)
}

func TestVerdict_DisplayableItems(t *testing.T) {
	v := Verdict{Items: []FactItem{{Text: "a"}, {Text: ""}, {Text: "b"}}}
	assert.Equal(t, []FactItem{{Text: "a"}, {Text: "b"}}, v.DisplayableItems())
	assert.Len(t, v.Items, 3)
}
