package domain

import "strings"

// Book is a catalog entry. Identity is the ISBN; two books with the same
// ISBN are the same logical record regardless of the other fields.
type Book struct {
	ISBN            string
	Title           string
	Authors         []string
	Year            int
	TotalCopies     int
	AvailableCopies int
}

// NewBook copies the authors slice so the entity never aliases caller state.
func NewBook(isbn, title string, authors []string, year, totalCopies, availableCopies int) Book {
	return Book{
		ISBN:            isbn,
		Title:           title,
		Authors:         append([]string(nil), authors...),
		Year:            year,
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
	}
}

// AuthorsLabel renders the author list for display, comma separated.
func (b Book) AuthorsLabel() string {
	return strings.Join(b.Authors, ", ")
}

// HasSameEdition reports whether other describes the same work in the same
// edition: equal normalized title, equal author set (order and case
// insensitive) and equal publication year.
func (b Book) HasSameEdition(other Book) bool {
	if b.Year != other.Year {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(b.Title), strings.TrimSpace(other.Title)) {
		return false
	}
	return equalAuthorSets(b.Authors, other.Authors)
}

func equalAuthorSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, name := range a {
		set[normalizeAuthor(name)]++
	}
	for _, name := range b {
		key := normalizeAuthor(name)
		set[key]--
		if set[key] < 0 {
			return false
		}
	}
	return true
}

func normalizeAuthor(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
