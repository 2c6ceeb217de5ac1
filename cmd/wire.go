package cmd

import (
	"fmt"
	"mapshare/internal/auth"
	"mapshare/internal/auth/dropbox"
	"mapshare/internal/auth/gdrive"
	"mapshare/internal/config"
	"mapshare/internal/db"
	"mapshare/internal/storage"
	"strings"
)

func newRegistry(cfg *config.Config) *auth.Registry {
	return auth.NewRegistry(
		dropbox.New(dropbox.Config{
			ClientID:       cfg.Dropbox.ClientID,
			RedirectOrigin: cfg.RedirectOrigin,
			Folder:         cfg.UploadFolder,
		}),
		gdrive.New(gdrive.Config{
			ClientID:       cfg.GDrive.ClientID,
			RedirectOrigin: cfg.RedirectOrigin,
			FolderID:       cfg.GDrive.FolderID,
		}),
	)
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageKeyring:
		return storage.NewKeyringStore(cfg.KeyringService)
	default:
		return storage.NewDBStore(db.DB), nil
	}
}

// resolveHandler picks the named handler, or the default one when name is
// empty.
func resolveHandler(name string) (auth.Handler, error) {
	h, ok := registry.ResolveOrDefault(name)
	if !ok {
		return nil, fmt.Errorf("unknown handler %q (available: %s)",
			name, strings.Join(registry.Names(), ", "))
	}

	return h, nil
}

func handlerArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}
