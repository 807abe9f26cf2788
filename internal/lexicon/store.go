// Package lexicon stores the word data used by generation strategies:
// a synonym table and a list of trending terms, persisted in BoltDB.
package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"
)

var (
	bucketSynonyms = []byte("synonyms")
	bucketTrending = []byte("trending")
)

// trendingEntry is the stored value for a trending term.
type trendingEntry struct {
	AddedAt time.Time `json:"added_at"`
}

// Stats contains lexicon statistics.
type Stats struct {
	SynonymWords  int `json:"synonym_words"`
	TrendingTerms int `json:"trending_terms"`
}

// Store provides persistent lexicon storage backed by BoltDB.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the lexicon database at path. A brand new
// database is seeded with the built-in word lists so strategies work
// out of the box.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lexicon directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSynonyms, bucketTrending} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.seedIfEmpty(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed lexicon: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying BoltDB handle so other components can share
// the same database file.
func (s *Store) DB() *bolt.DB {
	return s.db
}

// seedIfEmpty loads the built-in word lists into a fresh database.
func (s *Store) seedIfEmpty() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		synonyms := tx.Bucket(bucketSynonyms)
		trending := tx.Bucket(bucketTrending)

		if k, _ := synonyms.Cursor().First(); k == nil {
			for word, alts := range defaultSynonyms {
				data, err := json.Marshal(alts)
				if err != nil {
					return err
				}
				if err := synonyms.Put([]byte(word), data); err != nil {
					return err
				}
			}
		}

		if k, _ := trending.Cursor().First(); k == nil {
			now := time.Now()
			for _, term := range defaultTrending {
				data, err := json.Marshal(trendingEntry{AddedAt: now})
				if err != nil {
					return err
				}
				if err := trending.Put([]byte(term), data); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// Synonyms returns the full synonym table keyed by lowercase word.
func (s *Store) Synonyms() (map[string][]string, error) {
	table := make(map[string][]string)

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSynonyms)
		return bucket.ForEach(func(k, v []byte) error {
			var alts []string
			if err := json.Unmarshal(v, &alts); err != nil {
				return fmt.Errorf("corrupt synonym entry %q: %w", k, err)
			}
			table[string(k)] = alts
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return table, nil
}

// SynonymsFor returns the alternatives stored for word, or nil if the
// word has no entry.
func (s *Store) SynonymsFor(word string) ([]string, error) {
	var alts []string

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSynonyms)
		data := bucket.Get([]byte(strings.ToLower(word)))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &alts)
	})
	if err != nil {
		return nil, err
	}

	return alts, nil
}

// PutSynonyms stores the alternatives for word, replacing any existing
// entry. The word is stored lowercase.
func (s *Store) PutSynonyms(word string, alts []string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return fmt.Errorf("word is required")
	}
	if len(alts) == 0 {
		return fmt.Errorf("at least one synonym is required")
	}

	data, err := json.Marshal(alts)
	if err != nil {
		return fmt.Errorf("failed to marshal synonyms: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSynonyms).Put([]byte(word), data)
	})
}

// DeleteSynonyms removes the entry for word. Deleting a missing word
// is not an error.
func (s *Store) DeleteSynonyms(word string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSynonyms).Delete([]byte(strings.ToLower(word)))
	})
}

// TrendingTerms returns the trending terms in sorted order.
func (s *Store) TrendingTerms() ([]string, error) {
	var terms []string

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketTrending)
		return bucket.ForEach(func(k, v []byte) error {
			terms = append(terms, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(terms)
	return terms, nil
}

// AddTrending adds a trending term. Adding an existing term refreshes
// its timestamp.
func (s *Store) AddTrending(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("term is required")
	}

	data, err := json.Marshal(trendingEntry{AddedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal trending entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTrending).Put([]byte(term), data)
	})
}

// RemoveTrending removes a trending term. Removing a missing term is
// not an error.
func (s *Store) RemoveTrending(term string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTrending).Delete([]byte(term))
	})
}

// Stats returns entry counts for both buckets.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	err := s.db.View(func(tx *bolt.Tx) error {
		stats.SynonymWords = tx.Bucket(bucketSynonyms).Stats().KeyN
		stats.TrendingTerms = tx.Bucket(bucketTrending).Stats().KeyN
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// importFileFormat is the YAML layout accepted by ImportFile.
type importFileFormat struct {
	Synonyms map[string][]string `yaml:"synonyms"`
	Trending []string            `yaml:"trending"`
}

// ImportFile merges synonym and trending entries from a YAML file into
// the store. Existing entries for the same words are replaced.
func (s *Store) ImportFile(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var file importFileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	imported := &Stats{}
	err = s.db.Update(func(tx *bolt.Tx) error {
		synonyms := tx.Bucket(bucketSynonyms)
		for word, alts := range file.Synonyms {
			word = strings.ToLower(strings.TrimSpace(word))
			if word == "" || len(alts) == 0 {
				continue
			}
			value, err := json.Marshal(alts)
			if err != nil {
				return err
			}
			if err := synonyms.Put([]byte(word), value); err != nil {
				return err
			}
			imported.SynonymWords++
		}

		trending := tx.Bucket(bucketTrending)
		now := time.Now()
		for _, term := range file.Trending {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			value, err := json.Marshal(trendingEntry{AddedAt: now})
			if err != nil {
				return err
			}
			if err := trending.Put([]byte(term), value); err != nil {
				return err
			}
			imported.TrendingTerms++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return imported, nil
}
