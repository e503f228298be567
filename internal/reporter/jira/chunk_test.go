package jira

import (
	"strings"
	"testing"
)

func TestNormalizeDast(t *testing.T) {
	got := normalizeDast(`Open redirect at example\.com\.`)
	want := "Open redirect at example.com."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizeSastMarkup(t *testing.T) {
	got := normalizeSast(`Tainted flow\.<br /><pre>eval(data)</pre>`)
	want := "Tainted flow.\n{code:collapse=true}\n\neval(data)\n\n{code}"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestChunkFragmentsFitsInBody(t *testing.T) {
	fragments := []string{"first part", "second part"}
	body, comments := chunkFragments(fragments)

	if body != "first part\n\nsecond part" {
		t.Errorf("expected joined body, got %q", body)
	}
	if len(comments) != 0 {
		t.Errorf("expected no comments, got %d", len(comments))
	}
}

func TestChunkFragmentsOverflowsIntoComments(t *testing.T) {
	big := strings.Repeat("a", descriptionMaxSize)
	fragments := []string{big, "tail one", "tail two"}

	body, comments := chunkFragments(fragments)
	if body != big {
		t.Errorf("expected first fragment as body")
	}
	if len(comments) != 1 {
		t.Fatalf("expected small tails packed into 1 comment, got %d", len(comments))
	}
	if comments[0] != "tail one"+commentSeparator+"tail two" {
		t.Errorf("expected tails joined by separator, got %q", comments[0])
	}
}

func TestChunkFragmentsStartsNewCommentAtCeiling(t *testing.T) {
	big := strings.Repeat("a", descriptionMaxSize)
	nearCeiling := strings.Repeat("b", commentMaxSize-10)
	fragments := []string{big, nearCeiling, "more text that cannot fit"}

	_, comments := chunkFragments(fragments)
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0] != nearCeiling {
		t.Errorf("expected first comment to hold the near-ceiling fragment alone")
	}
	if comments[1] != "more text that cannot fit" {
		t.Errorf("expected overflow fragment in its own comment, got %q", comments[1])
	}
}

func TestChunkFragmentsKeepsEveryCharacter(t *testing.T) {
	big := strings.Repeat("a", descriptionMaxSize)
	huge := strings.Repeat("b", commentMaxSize*2+100)
	fragments := []string{big, huge, "trailer"}

	body, comments := chunkFragments(fragments)
	for i, comment := range comments {
		if runeLen(comment) > commentMaxSize {
			t.Errorf("comment %d exceeds ceiling: %d", i, runeLen(comment))
		}
	}

	rebuilt := body + strings.Join(comments, "")
	rebuilt = strings.ReplaceAll(rebuilt, commentSeparator, "")
	if rebuilt != big+huge+"trailer" {
		t.Errorf("reassembled text does not match input: %d vs %d chars",
			runeLen(rebuilt), runeLen(big+huge+"trailer"))
	}
}

func TestApplySizeLimitUnderLimit(t *testing.T) {
	body, comments := applySizeLimit("short body", nil, 1000)
	if body != "short body" || len(comments) != 0 {
		t.Errorf("expected pair unchanged, got %q and %d comments", body, len(comments))
	}
}

func TestApplySizeLimitDisabled(t *testing.T) {
	long := strings.Repeat("x", 5000)
	body, comments := applySizeLimit(long, nil, 0)
	if body != long || len(comments) != 0 {
		t.Errorf("expected zero limit to leave the pair unchanged")
	}
}

func TestApplySizeLimitCutsAndReconstructs(t *testing.T) {
	original := strings.Repeat("x", 9000)
	const limit = 3000

	body, comments := applySizeLimit(original, nil, limit)

	if runeLen(body) != limit {
		t.Errorf("expected body of exactly %d chars including notice, got %d",
			limit, runeLen(body))
	}
	if !strings.HasSuffix(body, descriptionCutNotice) {
		t.Errorf("expected body to end with the cut notice")
	}
	if len(comments) == 0 {
		t.Fatalf("expected overflow comments")
	}
	for i, comment := range comments {
		if runeLen(comment) > commentMaxSize {
			t.Errorf("comment %d exceeds ceiling: %d", i, runeLen(comment))
		}
	}

	rebuilt := body + strings.Join(comments, "")
	rebuilt = strings.ReplaceAll(rebuilt, descriptionCutNotice, "")
	if rebuilt != original {
		t.Errorf("expected stripped reconstruction to equal the original, got %d chars",
			runeLen(rebuilt))
	}
}

func TestApplySizeLimitPrependsOverflowBeforePackedComments(t *testing.T) {
	original := strings.Repeat("y", 4000)
	packed := []string{"packed comment"}

	_, comments := applySizeLimit(original, packed, 3000)
	if len(comments) < 2 {
		t.Fatalf("expected overflow plus the packed comment, got %d", len(comments))
	}
	if comments[len(comments)-1] != "packed comment" {
		t.Errorf("expected packed comment to stay last, got %q", comments[len(comments)-1])
	}
	if strings.Contains(comments[0], "packed") {
		t.Errorf("expected overflow chunks first")
	}
}

func TestApplySizeLimitCountsRunesNotBytes(t *testing.T) {
	// Multi-byte characters: 200 runes, 600 bytes.
	original := strings.Repeat("日本語漢字", 40)
	limit := runeLen(descriptionCutNotice) + 50

	body, comments := applySizeLimit(original, nil, limit)
	if runeLen(body) != limit {
		t.Errorf("expected body of %d runes, got %d", limit, runeLen(body))
	}
	rebuilt := strings.ReplaceAll(body+strings.Join(comments, ""), descriptionCutNotice, "")
	if rebuilt != original {
		t.Errorf("expected lossless rune-boundary cuts")
	}
}
