package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// TitleFromStem derives a human-readable document title from a filename
// stem: underscores and dashes become spaces, runs of whitespace collapse,
// and each word is title-cased. Words that already contain uppercase letters
// are left alone so acronyms survive ("ML_intro_week2" -> "ML Intro Week2").
func TitleFromStem(stem string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	words := strings.Fields(replaced)
	if len(words) == 0 {
		return stem
	}
	for i, word := range words {
		if word == strings.ToLower(word) {
			words[i] = titleCaser.String(word)
		}
	}
	return strings.Join(words, " ")
}
