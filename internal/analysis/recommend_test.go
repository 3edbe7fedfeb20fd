package analysis

import (
	"strings"
	"testing"

	"github.com/abcode/codelens/internal/parser"
)

func TestRecommend(t *testing.T) {
	t.Parallel()

	errors := []parser.ErrorEntry{
		{Type: "Indentation Error", Message: "bad indent"},
		{Type: "Syntax Error", Message: "missing colon"},
	}

	recommendations := Recommend(errors)

	if len(recommendations) == 0 || len(recommendations) > maxRecommendations {
		t.Fatalf("Expected 1..%d recommendations, got %d", maxRecommendations, len(recommendations))
	}
	if !strings.Contains(recommendations[0], "indentation") {
		t.Errorf("Expected indentation advice first, got %q", recommendations[0])
	}
	last := recommendations[len(recommendations)-1]
	if !strings.Contains(last, "Great job") {
		t.Errorf("Two errors should end with encouragement, got %q", last)
	}
}

func TestRecommendNoErrors(t *testing.T) {
	t.Parallel()

	recommendations := Recommend(nil)

	if len(recommendations) != 4 {
		t.Fatalf("Expected 3 general tips plus encouragement, got %d: %v", len(recommendations), recommendations)
	}
	if recommendations[0] != generalAdvice[0] {
		t.Errorf("Expected general advice, got %q", recommendations[0])
	}
}

func TestRecommendManyErrors(t *testing.T) {
	t.Parallel()

	errors := make([]parser.ErrorEntry, 8)
	for i := range errors {
		errors[i] = parser.ErrorEntry{Type: "Logic Error"}
	}

	recommendations := Recommend(errors)
	last := recommendations[len(recommendations)-1]
	if !strings.Contains(last, "Keep learning") {
		t.Errorf("Many errors should get the reassurance line, got %q", last)
	}
}
