package tagging

import (
	"reflect"
	"strings"
	"testing"
)

func TestTags_MatchesKeywords(t *testing.T) {
	c := NewClassifier()

	tags := c.Tags("New GPT model tops benchmark", "Researchers published a paper on arXiv")
	want := []string{"llm", "research"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("Tags = %v, want %v", tags, want)
	}
}

func TestTags_NoMatchReturnsNil(t *testing.T) {
	c := NewClassifier()

	if tags := c.Tags("Weather report", "Sunny skies expected"); tags != nil {
		t.Errorf("マッチなしの場合はnilを返すべき: %v", tags)
	}
}

func TestTags_CaseInsensitive(t *testing.T) {
	c := NewClassifier()

	tags := c.Tags("NVIDIA announces new GPU", "")
	found := false
	for _, tag := range tags {
		if tag == "hardware" {
			found = true
		}
	}
	if !found {
		t.Errorf("大文字小文字を区別せずマッチすべき: %v", tags)
	}
}

func TestTags_Deterministic(t *testing.T) {
	c := NewClassifier()

	title := "Open source LLM funding round"
	summary := "A startup released open weights for its language model"
	first := c.Tags(title, summary)
	for i := 0; i < 10; i++ {
		if got := c.Tags(title, summary); !reflect.DeepEqual(got, first) {
			t.Fatalf("タグ順序が安定していない: %v != %v", got, first)
		}
	}
}

func TestCategory_FirstRuleWins(t *testing.T) {
	c := NewClassifier()

	// researchルールとindustryルールの両方にマッチするが、先勝ち
	got := c.Category("OpenAI researchers publish paper", "")
	if got != "research" {
		t.Errorf("Category = %q, want research", got)
	}
}

func TestCategory_NoMatch(t *testing.T) {
	c := NewClassifier()

	if got := c.Category("Untitled", "nothing relevant"); got != "" {
		t.Errorf("マッチなしの場合は空文字列を返すべき: %q", got)
	}
}

func TestCategory_CustomRules(t *testing.T) {
	c := NewClassifierWithRules(nil, []Rule{
		{Label: "sports", Keywords: []string{"football"}},
	})

	if got := c.Category("Football finals", ""); got != "sports" {
		t.Errorf("Category = %q, want sports", got)
	}
}

func TestReadingTime(t *testing.T) {
	cases := []struct {
		name    string
		summary string
		want    int
	}{
		{"空サマリー", "", 0},
		{"短文は1分", "A short summary of the article.", 1},
		{"200語は1分", strings.Repeat("word ", 200), 1},
		{"201語は2分", strings.Repeat("word ", 201), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReadingTime(tc.summary); got != tc.want {
				t.Errorf("ReadingTime = %d, want %d", got, tc.want)
			}
		})
	}
}
