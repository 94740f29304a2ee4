// Package store はフロントエンドの設定値（midi-input-id, language など）を保持する
// 小さなキーバリューストアです。値は JSON のまま1ファイルに保存します。
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileName は設定ディレクトリ内の保存ファイル名。
const FileName = "settings.json"

type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// Open は path のストアを開く。ファイルが無ければ空のストアを返す。
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]json.RawMessage{}}
	bt, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(bt) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(bt, &s.values); err != nil {
		return nil, fmt.Errorf("store %s: %w", path, err)
	}
	if s.values == nil {
		s.values = map[string]json.RawMessage{}
	}
	return s, nil
}

// Get は key の値を JSON のまま返す。
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set は value を JSON にして保存し、すぐにファイルへ書き出す。
func (s *Store) Set(key string, value any) error {
	if key == "" {
		return errors.New("empty key")
	}
	bt, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = bt
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.values[key]
	if !ok {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// Keys はキー一覧（昇順）。
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flush は一時ファイルに書いてから rename する。呼び出し側で mu を保持すること。
func (s *Store) flush() error {
	bt, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(bt); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
