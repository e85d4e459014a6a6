package dao

import (
	"fmt"

	"klav_chat_server/internal/config"
	"klav_chat_server/internal/dao/filestore"
	"klav_chat_server/internal/dao/gormdb"
)

// Init opens the backend named by the storage configuration and returns
// the repository aggregate. Supported backends: "file" (JSON state files),
// "sqlite" and "mysql" (gorm).
func Init(cfg *config.StorageConfig) (*Repositories, error) {
	switch cfg.Backend {
	case "", "file":
		store, err := filestore.Open(cfg.StateDir)
		if err != nil {
			return nil, err
		}
		repos := filestore.New(store)
		return &Repositories{
			User:   repos.User,
			Room:   repos.Room,
			Member: repos.Member,
			Log:    repos.Log,
			Follow: repos.Follow,
			pinger: repos.Ping,
			closer: repos.Close,
		}, nil
	case "sqlite", "mysql":
		repos, err := gormdb.Open(cfg)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			User:   repos.User,
			Room:   repos.Room,
			Member: repos.Member,
			Log:    repos.Log,
			Follow: repos.Follow,
			pinger: repos.Ping,
			closer: repos.Close,
		}, nil
	default:
		return nil, fmt.Errorf("dao: unknown storage backend %q", cfg.Backend)
	}
}
