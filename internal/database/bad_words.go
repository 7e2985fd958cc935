package database

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const badWordsURL = "https://raw.githubusercontent.com/LDNOOBW/List-of-Dirty-Naughty-Obscene-and-Otherwise-Bad-Words/refs/heads/master/en"

// SeedBadWords fetches and seeds the bad words list used by the community filter
func (db *DB) SeedBadWords(ctx context.Context) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM bad_words").Scan(&count); err != nil {
		return fmt.Errorf("failed to check bad words count: %w", err)
	}

	if count > 0 {
		log.Printf("Bad words filter already populated with %d words", count)
		return nil
	}

	log.Println("Downloading bad words list...")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, badWordsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build bad words request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download bad words list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status code from bad words URL: %d", resp.StatusCode)
	}

	var words []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading bad words: %w", err)
	}

	added, err := db.AddBadWords(words)
	if err != nil {
		return err
	}

	log.Printf("Bad words filter populated with %d words", added)
	return nil
}

// AddBadWords inserts words into the filter and reports how many were new.
// Words are lower-cased; blanks and words already stored are skipped.
func (db *DB) AddBadWords(words []string) (int, error) {
	var existing []string
	if err := db.Select(&existing, "SELECT word FROM bad_words"); err != nil {
		return 0, fmt.Errorf("failed to load bad words: %w", err)
	}
	known := make(map[string]bool, len(existing)+len(words))
	for _, word := range existing {
		known[word] = true
	}

	var fresh []string
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" && !known[word] {
			known[word] = true
			fresh = append(fresh, word)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO bad_words (word) VALUES (?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, word := range fresh {
		if _, err := stmt.Exec(word); err != nil {
			return 0, fmt.Errorf("failed to add bad word %q: %w", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(fresh), nil
}

// FindBadWords returns the words of text that are in the bad words list
func (db *DB) FindBadWords(text string) ([]string, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tokens)), ",")
	args := make([]interface{}, len(tokens))
	for i, token := range tokens {
		args[i] = token
	}

	var found []string
	query := "SELECT word FROM bad_words WHERE word IN (" + placeholders + ") ORDER BY word"
	if err := db.Select(&found, query, args...); err != nil {
		return nil, fmt.Errorf("failed to check bad words: %w", err)
	}

	if len(found) > 0 {
		log.Printf("Bad words detected: %v", found)
	}
	return found, nil
}

// tokenize lower-cases text and splits it into unique words
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, field := range fields {
		if !seen[field] {
			seen[field] = true
			tokens = append(tokens, field)
		}
	}
	return tokens
}
