package domain

// Note is one parsed flashcard source entry. A reversed note yields two
// sibling cards, front-to-back and back-to-front, sharing its note id.
type Note struct {
	DeckName  string
	Title     string
	FrontText string
	BackText  string
	Reversed  bool
}

// CardCount is how many sibling cards the note materializes into.
func (n Note) CardCount() int {
	if n.Reversed {
		return 2
	}
	return 1
}
