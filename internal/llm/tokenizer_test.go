package llm

import "testing"

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}

	short := EstimateTokens("hello world")
	if short == 0 {
		t.Fatal("EstimateTokens returned 0 for non-empty text")
	}

	long := EstimateTokens("hello world, this is a longer sentence with many more words in it")
	if long <= short {
		t.Errorf("longer text estimated at %d tokens, short text at %d", long, short)
	}
}
