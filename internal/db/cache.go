package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/billmal071/litdl/internal/book"
)

// CacheKey derives the cache key of a book URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return fmt.Sprintf("%x", hash[:16])
}

// GetCachedBook returns the resolved book cached for url, or nil on a miss
func (s *Store) GetCachedBook(url string) (*book.Book, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT book_json FROM book_cache
		WHERE cache_key = ? AND expires_at > ?`, CacheKey(url), s.now().Unix()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b := &book.Book{}
	if err := json.Unmarshal([]byte(data), b); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s: %w", url, err)
	}
	return b, nil
}

// SaveCachedBook caches the resolved book of url for ttl
func (s *Store) SaveCachedBook(url string, b *book.Book, ttl time.Duration) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO book_cache (cache_key, url, book_json, expires_at)
		VALUES (?, ?, ?, ?)`,
		CacheKey(url), url, string(data), s.now().Add(ttl).Unix())
	return err
}

// CleanExpiredCache removes expired entries and returns how many were removed
func (s *Store) CleanExpiredCache() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM book_cache WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ClearCache removes every cached book
func (s *Store) ClearCache() error {
	_, err := s.db.Exec(`DELETE FROM book_cache`)
	return err
}

// CacheStats returns the number of cached and expired entries
func (s *Store) CacheStats() (total int, expired int, err error) {
	err = s.db.QueryRow(`SELECT COUNT(*) FROM book_cache`).Scan(&total)
	if err != nil {
		return 0, 0, err
	}

	err = s.db.QueryRow(`SELECT COUNT(*) FROM book_cache WHERE expires_at <= ?`, s.now().Unix()).Scan(&expired)
	if err != nil {
		return total, 0, err
	}
	return total, expired, nil
}
