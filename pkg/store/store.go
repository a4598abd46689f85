// Package store persists the watched-directory rule map and the activity log
// as versioned JSON files in the user data directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/activity"
	"github.com/sdejongh/filerules/pkg/rules"
)

const (
	formatVersion = 1
	rulesFileName = "rules.json"
	logFileName   = "log.json"
)

// rulesFile is the on-disk layout of rules.json
type rulesFile struct {
	// Version for file format compatibility
	Version int           `json:"version" yaml:"version"`
	Rules   rules.RuleMap `json:"rules" yaml:"rules"`
}

// logFile is the on-disk layout of log.json
type logFile struct {
	Version int           `json:"version"`
	Entries *activity.Log `json:"entries"`
}

// Store reads and writes state files in one directory
type Store struct {
	dir string
}

// New returns a store rooted at dir
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Default returns a store in $XDG_DATA_HOME/filerules
func Default() (*Store, error) {
	dir, err := platform.DataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return New(dir), nil
}

// Dir returns the directory holding the state files
func (s *Store) Dir() string {
	return s.dir
}

// RulesPath returns the path of the rules file
func (s *Store) RulesPath() string {
	return filepath.Join(s.dir, rulesFileName)
}

// LogPath returns the path of the activity log file
func (s *Store) LogPath() string {
	return filepath.Join(s.dir, logFileName)
}

// LoadRules reads the rule map. A missing file yields an empty map.
func (s *Store) LoadRules() (rules.RuleMap, error) {
	var file rulesFile
	found, err := readJSON(s.RulesPath(), &file)
	if err != nil {
		return nil, err
	}
	if !found || file.Rules == nil {
		return rules.RuleMap{}, nil
	}
	return file.Rules, nil
}

// SaveRules writes the rule map
func (s *Store) SaveRules(m rules.RuleMap) error {
	if m == nil {
		m = rules.RuleMap{}
	}
	return writeJSON(s.RulesPath(), rulesFile{Version: formatVersion, Rules: m})
}

// LoadLog reads the activity log. A missing file yields an empty log.
func (s *Store) LoadLog() (*activity.Log, error) {
	file := logFile{Entries: activity.NewLog()}
	if _, err := readJSON(s.LogPath(), &file); err != nil {
		return nil, err
	}
	if file.Entries == nil {
		return activity.NewLog(), nil
	}
	return file.Entries, nil
}

// SaveLog writes the activity log
func (s *Store) SaveLog(log *activity.Log) error {
	return writeJSON(s.LogPath(), logFile{Version: formatVersion, Entries: log})
}

// ExportRules writes the rule map as YAML for hand editing
func ExportRules(w io.Writer, m rules.RuleMap) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rulesFile{Version: formatVersion, Rules: m}); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return enc.Close()
}

// ImportRules reads a YAML rule map written by ExportRules and validates it
func ImportRules(r io.Reader) (rules.RuleMap, error) {
	var file rulesFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return rules.RuleMap{}, nil
		}
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if file.Version > formatVersion {
		return nil, fmt.Errorf("rules version %d is newer than supported version %d", file.Version, formatVersion)
	}
	if file.Rules == nil {
		file.Rules = rules.RuleMap{}
	}
	if err := file.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return file.Rules, nil
}

// readJSON decodes path into v and checks the format version.
// It reports false when the file does not exist.
func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if header.Version > formatVersion {
		return false, fmt.Errorf("%s version %d is newer than supported version %d", filepath.Base(path), header.Version, formatVersion)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSON writes v to path atomically through a temp file in the same
// directory
func writeJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Clean up temp file
		return fmt.Errorf("failed to finalize %s: %w", filepath.Base(path), err)
	}
	return nil
}
