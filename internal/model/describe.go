package model

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	describeNextHeading = "## Next"
	describeDoneHeading = "## Done"
	doneItemPrefix      = "- [x] "
)

var uncheckedItemRegexp = regexp.MustCompile(`^-\s+\[ \]\s+(.+)$`)

// DefaultProjectName is used when a project is initialized without name.
const DefaultProjectName = "My Project"

const describeTemplate = `# Project: %s

## Context
Brief description of your project, tech stack, conventions.

## Done
<!-- Move completed items here -->

## Next
- [ ] Add your first task here
- [ ] Another task to work on

## Notes
- Add any guidelines for engineers
- Code style: follow existing patterns
`

// NewDescribeDocument returns the describe document a project is initialized with.
func NewDescribeDocument(projectName string) string {
	if projectName == "" {
		projectName = DefaultProjectName
	}
	return fmt.Sprintf(describeTemplate, projectName)
}

// ParseNextItems returns the unchecked checklist items of the first "## Next" section,
// in document order. The section ends at the next level-2 heading.
func ParseNextItems(text string) []string {
	items := []string{}
	inNext := false
	seenNext := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if isLevel2Heading(trimmed) {
			switch {
			case trimmed == describeNextHeading && !seenNext:
				inNext = true
				seenNext = true
			case inNext:
				inNext = false
			}
			continue
		}

		if !inNext {
			continue
		}

		if item, ok := uncheckedItem(trimmed); ok {
			items = append(items, item)
		}
	}

	return items
}

// MoveToDone moves the unchecked Next item matching title to the Done section as a
// checked item keeping the item text. An exact item text match is preferred, otherwise the
// first item that contains the title case-insensitively is used. The boolean reports if a
// line was moved.
func MoveToDone(text, title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return text, false
	}

	lines := strings.Split(text, "\n")
	idx, item := findNextItem(lines, title)
	if idx < 0 {
		return text, false
	}
	lines = append(lines[:idx], lines[idx+1:]...)

	doneItem := doneItemPrefix + item
	for i, line := range lines {
		if strings.TrimSpace(line) == describeDoneHeading {
			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:i+1]...)
			out = append(out, doneItem)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n"), true
		}
	}

	// No Done section, append one.
	result := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	return result + "\n\n" + describeDoneHeading + "\n" + doneItem + "\n", true
}

// HasDoneItem returns true if the Done section has the checked item with the exact title.
func HasDoneItem(text, title string) bool {
	title = strings.TrimSpace(title)
	inDone := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isLevel2Heading(trimmed) {
			inDone = trimmed == describeDoneHeading
			continue
		}
		if inDone && trimmed == doneItemPrefix+title {
			return true
		}
	}
	return false
}

func findNextItem(lines []string, title string) (int, string) {
	type candidate struct {
		idx  int
		text string
	}

	var candidates []candidate
	inNext := false
	seenNext := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isLevel2Heading(trimmed) {
			switch {
			case trimmed == describeNextHeading && !seenNext:
				inNext = true
				seenNext = true
			case inNext:
				inNext = false
			}
			continue
		}
		if !inNext {
			continue
		}
		if item, ok := uncheckedItem(trimmed); ok {
			candidates = append(candidates, candidate{idx: i, text: item})
		}
	}

	for _, c := range candidates {
		if c.text == title {
			return c.idx, c.text
		}
	}

	lower := strings.ToLower(title)
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.text), lower) {
			return c.idx, c.text
		}
	}

	return -1, ""
}

func isLevel2Heading(trimmed string) bool {
	return trimmed == "##" || strings.HasPrefix(trimmed, "## ")
}

func uncheckedItem(trimmed string) (string, bool) {
	m := uncheckedItemRegexp.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false
	}
	item := strings.TrimSpace(m[1])
	if item == "" {
		return "", false
	}
	return item, true
}
