package opus

import "strings"

// Screenplay is the structured scene breakdown returned with an
// exportable clip.
type Screenplay struct {
	Chapters []Chapter `json:"chapters"`
}

// Chapter groups the lines of one scene.
type Chapter struct {
	Lines []Line `json:"lines"`
}

// Line is one annotated segment: "verbal" lines carry spoken content,
// "visual" lines describe what is on screen.
type Line struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// VerbalTranscript extracts the spoken content from a chapter breakdown:
// verbal lines only, original order, concatenated with no separator.
func VerbalTranscript(chapters []Chapter) string {
	var b strings.Builder
	for _, chapter := range chapters {
		for _, line := range chapter.Lines {
			if line.Type != "verbal" {
				continue
			}
			if content := strings.TrimSpace(line.Content); content != "" {
				b.WriteString(content)
			}
		}
	}
	return b.String()
}
