package jira

import (
	"strings"
	"unicode/utf8"
)

// Jira Server hard ceilings for issue descriptions and comments. Sizes
// are measured in characters, not bytes.
const (
	descriptionMaxSize = 61908
	commentMaxSize     = 32767
)

// descriptionCutNotice is appended wherever text was truncated to fit a
// configured size limit; the continuation follows in comments.
const descriptionCutNotice = "\n\n_Description was cut. See comments for the rest of the text._"

// commentSeparator joins description fragments packed into one comment.
const commentSeparator = "  \n  \n"

// sastMarkup rewrites scanner HTML markup into tracker markup and
// unescapes periods.
var sastMarkup = strings.NewReplacer(
	`\.`, ".",
	"<pre>", "{code:collapse=true}\n\n",
	"</pre>", "\n\n{code}",
	"<br />", "\n",
)

// normalizeDast prepares a single-description finding for the tracker:
// escaped periods become literal periods.
func normalizeDast(description string) string {
	return strings.ReplaceAll(description, `\.`, ".")
}

// normalizeSast prepares one description fragment of a multi-part finding.
func normalizeSast(fragment string) string {
	return sastMarkup.Replace(fragment)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// chunkFragments assembles a ticket body and overflow comments from
// normalized description fragments. When the joined text fits under the
// body ceiling it becomes the body with no comments. Otherwise the first
// fragment seeds the body and the remaining fragments are greedily packed
// into comments: a new comment starts whenever appending the next piece
// with the separator would reach the comment ceiling. A single fragment
// larger than the ceiling is split across several comments so that no
// text is lost.
func chunkFragments(fragments []string) (string, []string) {
	joined := strings.Join(fragments, "\n\n")
	if runeLen(joined) <= descriptionMaxSize {
		return joined, nil
	}

	body := fragments[0]
	var comments []string
	for _, fragment := range fragments[1:] {
		for i, piece := range splitComment(fragment) {
			last := len(comments) - 1
			if i == 0 && last >= 0 &&
				runeLen(comments[last])+runeLen(commentSeparator)+runeLen(piece) < commentMaxSize {
				comments[last] += commentSeparator + piece
				continue
			}
			comments = append(comments, piece)
		}
	}
	return body, comments
}

// splitComment splits a fragment into pieces no longer than the comment
// ceiling, keeping every character.
func splitComment(fragment string) []string {
	if runeLen(fragment) < commentMaxSize {
		return []string{fragment}
	}
	runes := []rune(fragment)
	var pieces []string
	for len(runes) > 0 {
		n := commentMaxSize - 1
		if n > len(runes) {
			n = len(runes)
		}
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}

// applySizeLimit enforces a configured maximum description size on an
// assembled body/comments pair. When the body exceeds maxSize it is cut
// so that body plus notice is exactly maxSize characters; the remainder
// is re-chunked into marked comments placed before any comments from
// fragment packing, so the full text stays readable in order. A maxSize
// of zero (or one too small to hold the notice) leaves the pair unchanged.
func applySizeLimit(body string, comments []string, maxSize int) (string, []string) {
	noticeLen := runeLen(descriptionCutNotice)
	if maxSize <= noticeLen || runeLen(body) <= maxSize {
		return body, comments
	}

	runes := []rune(body)
	cutPoint := maxSize - noticeLen
	cut := string(runes[:cutPoint]) + descriptionCutNotice
	rest := runes[cutPoint:]

	threshold := commentMaxSize
	if maxSize < threshold {
		threshold = maxSize
	}
	chunkCut := threshold - noticeLen

	var overflow []string
	for len(rest) > 0 {
		if len(rest) > threshold {
			overflow = append(overflow, string(rest[:chunkCut])+descriptionCutNotice)
			rest = rest[chunkCut:]
			continue
		}
		overflow = append(overflow, string(rest))
		break
	}
	return cut, append(overflow, comments...)
}
