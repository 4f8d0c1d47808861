package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

type Backend struct {
	name       string
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	remotePath string
}

func init() {
	storage.RegisterBackend("ssh", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new SSH/SFTP backend
func New(cfg storage.Config) (*Backend, error) {
	sshCfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrInvalidConfig, err)
	}

	clientConfig, err := clientConfig(sshCfg)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrInvalidConfig, err)
	}

	addr := net.JoinHostPort(sshCfg.Host, strconv.Itoa(sshCfg.Port))
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "connect", storage.ErrConnFailed, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, storage.WrapError(cfg.Name, "sftp init", storage.ErrConnFailed, err)
	}

	b, err := newWithClient(cfg.Name, sshCfg.RemotePath, sftpClient)
	if err != nil {
		sftpClient.Close()
		sshClient.Close()
		return nil, err
	}
	b.sshClient = sshClient

	return b, nil
}

func newWithClient(name, remotePath string, client *sftp.Client) (*Backend, error) {
	if err := client.MkdirAll(remotePath); err != nil {
		return nil, storage.WrapError(name, "mkdir", storage.ErrPermissionDenied, err)
	}

	return &Backend{
		name:       name,
		sftpClient: client,
		remotePath: remotePath,
	}, nil
}

func clientConfig(sshCfg *Config) (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if sshCfg.KnownHosts != "" {
		cb, err := knownhosts.New(sshCfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	cfg := &ssh.ClientConfig{
		User:            sshCfg.User,
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	}

	if sshCfg.Password != "" {
		cfg.Auth = append(cfg.Auth, ssh.Password(sshCfg.Password))
	}

	if sshCfg.KeyPath != "" {
		key, err := os.ReadFile(sshCfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH key: %w", err)
		}

		var signer ssh.Signer
		if sshCfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(sshCfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse SSH key: %w", err)
		}

		cfg.Auth = append(cfg.Auth, ssh.PublicKeys(signer))
	}

	return cfg, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "ssh" }

// Write uploads a file via SFTP. The data goes to a temporary name first so
// a partial upload is never listed as an artifact.
func (b *Backend) Write(ctx context.Context, sourcePath, key string) error {
	localFile, err := os.Open(sourcePath)
	if err != nil {
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, storage.Classify(err))
	}
	defer localFile.Close()

	remotePath := path.Join(b.remotePath, key)
	if err := b.sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
		return storage.WrapError(b.name, "mkdir", storage.ErrUploadFailed, classify(err))
	}

	partPath := remotePath + ".part"
	remoteFile, err := b.sftpClient.Create(partPath)
	if err != nil {
		return storage.WrapError(b.name, "create", storage.ErrUploadFailed, classify(err))
	}

	if _, err := io.Copy(remoteFile, localFile); err != nil {
		remoteFile.Close()
		b.sftpClient.Remove(partPath)
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, classify(err))
	}
	if err := remoteFile.Close(); err != nil {
		b.sftpClient.Remove(partPath)
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, classify(err))
	}

	if err := b.sftpClient.PosixRename(partPath, remotePath); err != nil {
		b.sftpClient.Remove(partPath)
		return storage.WrapError(b.name, "rename", storage.ErrUploadFailed, classify(err))
	}

	return nil
}

// List returns the regular files directly under prefix, as keys
func (b *Backend) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	dir := strings.TrimRight(prefix, "/")

	entries, err := b.sftpClient.ReadDir(path.Join(b.remotePath, dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, storage.WrapError(b.name, "list", storage.ErrListFailed, classify(err))
	}

	var files []storage.FileInfo
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}

		files = append(files, storage.FileInfo{
			Path:    storage.ObjectKey(dir, entry.Name()),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}

	return files, nil
}

// Delete removes each key independently
func (b *Backend) Delete(ctx context.Context, keys []string) []storage.DeleteFailure {
	var failures []storage.DeleteFailure

	for _, key := range keys {
		if err := b.sftpClient.Remove(path.Join(b.remotePath, key)); err != nil {
			failures = append(failures, storage.DeleteFailure{
				Key: key,
				Err: storage.WrapError(b.name, "delete", storage.ErrDeleteFailed, classify(err)),
			})
		}
	}

	return failures
}

// Close releases resources
func (b *Backend) Close() error {
	if b.sftpClient != nil {
		b.sftpClient.Close()
	}
	if b.sshClient != nil {
		b.sshClient.Close()
	}
	return nil
}

func classify(err error) error {
	var status *sftp.StatusError
	if errors.As(err, &status) {
		switch status.FxCode() {
		case sftp.ErrSSHFxPermissionDenied:
			return fmt.Errorf("%w: %w", storage.ErrPermissionDenied, err)
		case sftp.ErrSSHFxNoSuchFile:
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case sftp.ErrSSHFxConnectionLost, sftp.ErrSSHFxNoConnection:
			return fmt.Errorf("%w: %w", storage.ErrConnFailed, err)
		}
	}
	return storage.Classify(err)
}
