package subject

// SearchReadings returns the reading texts stored on the subject index row.
// Radicals have no readings, so the result is empty (never nil) for them.
func SearchReadings(r Record) []string {
	out := []string{}
	switch s := r.(type) {
	case *Kanji:
		for _, rd := range s.Readings {
			out = append(out, rd.Text)
		}
	case *Vocabulary:
		for _, rd := range s.Readings {
			out = append(out, rd.Text)
		}
	}
	return out
}

// SearchMeanings returns the meaning texts stored on the subject index row.
// Radical meanings are deliberately left out of the index.
func SearchMeanings(r Record) []string {
	out := []string{}
	switch r.(type) {
	case *Kanji, *Vocabulary:
		for _, m := range r.Header().Meanings {
			out = append(out, m.Text)
		}
	}
	return out
}

// Characters returns the display characters of a subject, or "" for
// image-only radicals.
func Characters(r Record) string {
	switch s := r.(type) {
	case *Radical:
		if s.Characters != nil {
			return *s.Characters
		}
	case *Kanji:
		return s.Characters
	case *Vocabulary:
		return s.Characters
	}
	return ""
}
