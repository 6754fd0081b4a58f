package data

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// archiveRepo implements the read-only bulk archive over a Telegram-style
// export file ({name, type, id, messages: [...]}). The file can be much
// larger than memory, so messages are decoded one record at a time.
type archiveRepo struct {
	path string
}

// NewArchiveRepo creates an archive reader for path. A missing file is a
// valid empty archive.
func NewArchiveRepo(path string) repo.ArchiveRepo {
	return &archiveRepo{path: path}
}

// Window streams the archive and returns messages in [start, end) in file
// order. Records that fail to decode are skipped, matching the
// degraded-but-functioning read policy.
func (r *archiveRepo) Window(start, end time.Time) ([]domain.Message, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	// Walk the top-level object until the "messages" key
	if _, err := dec.Token(); err != nil { // opening {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse archive: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parse archive: unexpected token %v", tok)
		}
		if key != "messages" {
			// Skip the metadata value (name, type, id)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("parse archive: %w", err)
			}
			continue
		}
		return r.scanMessages(dec, start, end)
	}
	return nil, nil
}

func (r *archiveRepo) scanMessages(dec *json.Decoder, start, end time.Time) ([]domain.Message, error) {
	if _, err := dec.Token(); err != nil { // opening [
		return nil, fmt.Errorf("parse archive messages: %w", err)
	}

	var (
		result  []domain.Message
		skipped int
	)
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return result, fmt.Errorf("parse archive record: %w", err)
		}
		var msg domain.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			skipped++
			continue
		}
		if msg.InWindow(start, end) {
			result = append(result, msg)
		}
	}
	if skipped > 0 {
		fmt.Printf("[Archive] Skipped %d undecodable records\n", skipped)
	}
	return result, nil
}
