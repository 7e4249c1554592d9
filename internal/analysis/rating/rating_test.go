package rating

import "testing"

func TestExtractJSON(t *testing.T) {
	res, ok := Extract("Here you go: {\"score\": 8, \"reason\": \"practical and concrete\"}")
	if !ok {
		t.Fatal("expected a rating")
	}
	if res.Score != 8 || res.Reason != "practical and concrete" || res.Method != MethodJSON {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExtractFraction(t *testing.T) {
	res, ok := Extract("I rate Oracle's response 7/10 because it is grounded but short on meaning.")
	if !ok || res.Score != 7 || res.Method != MethodFraction {
		t.Fatalf("unexpected result %+v ok=%v", res, ok)
	}

	res, ok = Extract("Roughly 8.6 out of 10.")
	if !ok || res.Score != 9 {
		t.Fatalf("expected rounding to 9, got %+v", res)
	}
}

func TestExtractLabel(t *testing.T) {
	cases := map[string]int{
		"Score: 9 - a deep reflection": 9,
		"Overall rating is 6":          6,
		"rating = 4.5, thin on detail": 5,
		"Rating: 0":                    MinScore,
	}
	for text, want := range cases {
		res, ok := Extract(text)
		if !ok {
			t.Fatalf("%q: expected a rating", text)
		}
		if res.Score != want {
			t.Fatalf("%q: got %d want %d", text, res.Score, want)
		}
	}
}

func TestExtractClampsHighScores(t *testing.T) {
	res, ok := Extract("Easily 15/10.")
	if !ok || res.Score != MaxScore {
		t.Fatalf("expected clamp to %d, got %+v", MaxScore, res)
	}
}

func TestExtractWithoutScore(t *testing.T) {
	for _, text := range []string{
		"I can't put a clear number on this; it is thoughtful but I decline to score it.",
		"Oracle gave 3 concrete steps and a timeline, which I find persuasive.",
		"I'd give it a 6, it misses the why",
		"A vague and shallow answer.",
	} {
		if res, ok := Extract(text); ok {
			t.Fatalf("%q: expected no score, got %+v", text, res)
		}
	}
}

func TestExtractNothing(t *testing.T) {
	if _, ok := Extract("hello there"); ok {
		t.Fatal("expected no rating")
	}
	if _, ok := Extract("   "); ok {
		t.Fatal("expected no rating for blank text")
	}
}
