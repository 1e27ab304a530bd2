package rag

import "testing"

func TestParseFAQ(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Document
	}{
		{
			name: "single pair",
			text: "Q: What is your return policy?\nA: 30 days, no questions asked.",
			want: []Document{
				{Question: "What is your return policy?", Answer: "30 days, no questions asked."},
			},
		},
		{
			name: "multiple pairs separated by blank lines",
			text: "Q: Do you ship internationally?\nA: Yes, to over 40 countries.\n\nQ: How long does shipping take?\nA: 3-5 business days.",
			want: []Document{
				{Question: "Do you ship internationally?", Answer: "Yes, to over 40 countries."},
				{Question: "How long does shipping take?", Answer: "3-5 business days."},
			},
		},
		{
			name: "multiline answer",
			text: "Q: How do I reset my password?\nA: Click the reset link.\nCheck your inbox for the email.\n\nQ: Second?\nA: Yes.",
			want: []Document{
				{Question: "How do I reset my password?", Answer: "Click the reset link.\nCheck your inbox for the email."},
				{Question: "Second?", Answer: "Yes."},
			},
		},
		{
			name: "malformed block skipped",
			text: "Q: Question without answer\n\nQ: Valid?\nA: Yes.",
			want: []Document{
				{Question: "Valid?", Answer: "Yes."},
			},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "leading prose ignored",
			text: "Frequently asked questions\n\nQ: Valid?\nA: Yes.",
			want: []Document{
				{Question: "Valid?", Answer: "Yes."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFAQ(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseFAQ() returned %d documents, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("document %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
