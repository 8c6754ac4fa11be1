package snapshot

import (
	"github.com/raoulx24/rsync-snapper/internal/config"
	"github.com/raoulx24/rsync-snapper/internal/fs"
)

// StoreFactory picks the store implementation from the remote config:
// SSH when a host is set, plain directories otherwise.
type StoreFactory struct {
	remote config.RemoteConfig
	fs     fs.FS
	runner CmdRunner
}

func NewStoreFactory(remote config.RemoteConfig, filesystem fs.FS) *StoreFactory {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &StoreFactory{remote: remote, fs: filesystem}
}

func (f *StoreFactory) For(sourcePath string) Store {
	if f.remote.Host != "" {
		return NewSSHStore(f.remote.Host, f.remote.Root, sourcePath, f.runner)
	}
	return NewDirStore(f.fs, f.remote.Root, sourcePath)
}
