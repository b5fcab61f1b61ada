package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tafahom/internal/logging"
	"tafahom/internal/profile"
	jsonx "tafahom/internal/shared/json"
	"tafahom/internal/store"
)

// File naming shared with every deployment since the original prototype.
// The identifier is the timestamp-derived conversation id.
const (
	profilePrefix    = "tafahom_profil_"
	enrichedPrefix   = "tafahom_profil_enrichi_"
	transcriptPrefix = "tafahom_portail_"

	transcriptHeader = "Conversation TAFAHOM-Portail - Artiste:\n\n"
)

// Store keeps profiles, enriched profiles and transcripts as flat files in
// one directory.
type Store struct {
	baseDir string
	logger  logging.Logger
}

// New returns a flat-file store rooted at baseDir, creating it if needed.
func New(baseDir string) *Store {
	if strings.HasPrefix(baseDir, "~/") {
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, baseDir[2:])
	}
	_ = os.MkdirAll(baseDir, 0755) // directory may already exist
	return &Store{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger("FileStore"),
	}
}

var (
	_ store.ProfileStore    = (*Store)(nil)
	_ store.TranscriptStore = (*Store)(nil)
)

func (s *Store) profilePath(id string) string {
	return filepath.Join(s.baseDir, profilePrefix+id+".json")
}

func (s *Store) enrichedPath(id string) string {
	return filepath.Join(s.baseDir, enrichedPrefix+id+".json")
}

func (s *Store) transcriptPath(id string) string {
	return filepath.Join(s.baseDir, transcriptPrefix+id+".txt")
}

func (s *Store) SaveProfile(id string, doc *profile.Document) error {
	return s.writeJSON(s.profilePath(id), doc)
}

func (s *Store) LoadProfile(id string) (*profile.Document, error) {
	data, err := os.ReadFile(s.profilePath(id))
	if err != nil {
		available, listErr := s.List()
		if listErr != nil {
			s.logger.Warn("listing profiles after miss on %s: %v", id, listErr)
		}
		return nil, &store.NotFoundError{ID: id, Available: available}
	}
	var doc profile.Document
	if err := jsonx.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &doc, nil
}

func (s *Store) SaveEnriched(id string, doc *profile.EnrichedDocument) error {
	return s.writeJSON(s.enrichedPath(id), doc)
}

func (s *Store) LoadEnriched(id string) (*profile.EnrichedDocument, error) {
	data, err := os.ReadFile(s.enrichedPath(id))
	if err != nil {
		return nil, fmt.Errorf("enriched profile %s not found", id)
	}
	var doc profile.EnrichedDocument
	if err := jsonx.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode enriched profile %s: %w", id, err)
	}
	return &doc, nil
}

func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, profilePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasPrefix(name, enrichedPrefix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, profilePrefix), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Create(id string) error {
	return os.WriteFile(s.transcriptPath(id), []byte(transcriptHeader), 0644)
}

func (s *Store) Append(id, role, content string) error {
	f, err := os.OpenFile(s.transcriptPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open transcript %s: %w", id, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintf(f, "%s: %s\n\n", role, content); err != nil {
		return fmt.Errorf("append transcript %s: %w", id, err)
	}
	return nil
}

func (s *Store) Read(id string) (string, error) {
	data, err := os.ReadFile(s.transcriptPath(id))
	if err != nil {
		return "", fmt.Errorf("transcript %s not found", id)
	}
	return string(data), nil
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
