package ingest

import "strings"

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace. Whitespace runs inside sentences are collapsed.
func splitSentences(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	var sentences []string
	var current []string
	for _, word := range fields {
		current = append(current, word)
		if endsSentence(word) {
			sentences = append(sentences, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

func endsSentence(word string) bool {
	trimmed := strings.TrimRight(word, `"')]`)
	if trimmed == "" {
		return false
	}
	last := trimmed[len(trimmed)-1]
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	if last == '.' {
		stem := strings.TrimSuffix(trimmed, ".")
		// Initials like "J." and abbreviations like "e.g." stay inside
		// their sentence.
		if len(stem) == 1 || strings.Contains(stem, ".") {
			return false
		}
	}
	return true
}

// chunkText groups sentences into chunks of at most size characters,
// carrying roughly overlap characters of trailing sentences into the
// next chunk so context spans chunk boundaries. A single sentence
// longer than size becomes its own chunk.
func chunkText(text string, size, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		added := len(sentence)
		if currentLen > 0 {
			added++ // joining space
		}

		if currentLen+added > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			// Seed the next chunk with trailing sentences up to the
			// overlap budget.
			var carried []string
			carriedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				l := len(current[i])
				if carriedLen > 0 {
					l++
				}
				if carriedLen+l > overlap {
					break
				}
				carried = append([]string{current[i]}, carried...)
				carriedLen += l
			}
			current = carried
			currentLen = carriedLen

			if currentLen > 0 {
				added = len(sentence) + 1
			} else {
				added = len(sentence)
			}
		}

		current = append(current, sentence)
		currentLen += added
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
