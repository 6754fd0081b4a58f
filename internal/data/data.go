package data

import (
	"github.com/chuvashini/companion-bot/internal/biz/repo"
	"github.com/chuvashini/companion-bot/internal/infra/telegram"
)

// Repositories contains all repositories
type Repositories struct {
	History    repo.HistoryRepo
	Archive    repo.ArchiveRepo
	Session    repo.SessionRepo
	Completion repo.CompletionRepo
	Messenger  repo.MessengerRepo
}

// NewRepositories creates the storage and transport repositories. The
// completion repository is provider-specific and attached by the caller.
func NewRepositories(tgClient *telegram.Client, historyDir string, historyCap int, archivePath, sessionDBPath string) (*Repositories, error) {
	historyRepo, err := NewHistoryRepo(historyDir, historyCap)
	if err != nil {
		return nil, err
	}
	sessionRepo, err := NewSessionRepo(sessionDBPath)
	if err != nil {
		return nil, err
	}

	repos := &Repositories{
		History:   historyRepo,
		Session:   sessionRepo,
		Messenger: NewMessengerRepo(tgClient),
	}
	if archivePath != "" {
		repos.Archive = NewArchiveRepo(archivePath)
	}
	return repos, nil
}
