package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

const (
	frontPrefix    = "Q:"
	backPrefix     = "A:"
	titlePrefix    = "T:"
	reversedMarker = "R:"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
	readingTitle
)

// ParseFile reads a file from the given path and extracts all notes.
func ParseFile(path string) ([]domain.Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all notes. A note starts at a
// Q: line and ends at the next Q: line or a "---" separator. An R: line
// anywhere inside a note marks it reversed, so it yields a second sibling
// card with front and back swapped.
func Parse(r io.Reader) ([]domain.Note, error) {
	scanner := bufio.NewScanner(r)
	var notes []domain.Note
	var currentNote domain.Note
	var currentBlock []string
	currentState := seeking

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.Join(currentBlock, "\n")
		switch currentState {
		case readingFront:
			currentNote.FrontText = content
		case readingBack:
			currentNote.BackText = content
		case readingTitle:
			currentNote.Title = content
		}
		currentBlock = nil
	}

	finishNote := func() {
		flushBlock()
		if currentNote.FrontText != "" {
			notes = append(notes, currentNote)
		}
		currentNote = domain.Note{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		isFront := strings.HasPrefix(line, frontPrefix)
		isBack := strings.HasPrefix(line, backPrefix)
		isTitle := strings.HasPrefix(line, titlePrefix)
		isReversed := strings.TrimSpace(line) == reversedMarker
		isSeparator := line == "---"

		if isSeparator {
			finishNote()
			continue
		}

		if isReversed && currentState != seeking {
			flushBlock()
			currentNote.Reversed = true
			continue
		}

		if isFront || isBack || isTitle {
			flushBlock()

			if isFront {
				if currentState != seeking { // A new front always starts a new note
					finishNote()
				}
				currentState = readingFront
				currentBlock = append(currentBlock, trimPrefix(line, frontPrefix))
			} else if isBack {
				currentState = readingBack
				currentBlock = append(currentBlock, trimPrefix(line, backPrefix))
			} else if isTitle {
				currentState = readingTitle
				currentBlock = append(currentBlock, trimPrefix(line, titlePrefix))
			}
		} else if currentState != seeking {
			currentBlock = append(currentBlock, line)
		}
	}

	finishNote() // Finish the very last note in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}
