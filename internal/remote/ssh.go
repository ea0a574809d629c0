// Package remote runs commands on an instance's host OS over SSH. Firewall
// rules and startup parameters live outside SQL Server and can only be
// changed there.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Runner executes a single command on a remote host and returns its combined
// output. Implementations must be safe for sequential reuse.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
	Close() error
}

// Options configure an SSH connection to an instance host.
type Options struct {
	Host        string
	Port        int
	User        string
	Password    string
	KeyPath     string
	Passphrase  string
	DialTimeout time.Duration

	// KnownHostsPath enables host key verification against the given
	// known_hosts file. Empty means the host key is not verified.
	KnownHostsPath string
}

// SSHRunner is a Runner backed by a live SSH client.
type SSHRunner struct {
	client *ssh.Client
}

// Dial establishes an SSH connection, trying key, password, and agent auth in
// that order.
func Dial(opts Options) (*SSHRunner, error) {
	var auths []ssh.AuthMethod

	if opts.KeyPath != "" {
		signer, err := loadSigner(opts.KeyPath, opts.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("load key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if opts.Password != "" {
		auths = append(auths, ssh.Password(opts.Password))
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			auths = append(auths, ssh.PublicKeysCallback(ag.Signers))
		}
	}
	if len(auths) == 0 {
		return nil, fmt.Errorf("no SSH authentication method available for %s", opts.Host)
	}

	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	port := opts.Port
	if port == 0 {
		port = 22
	}

	hostKeyCB, err := hostKeyCallback(opts.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCB,
		Timeout:         timeout,
	}
	addr := fmt.Sprintf("%s:%d", opts.Host, port)
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return &SSHRunner{client: client}, nil
}

// Run executes one command in a fresh session, honoring context cancellation.
func (r *SSHRunner) Run(ctx context.Context, command string) (string, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	session.Stderr = &out

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return out.String(), ctx.Err()
	case err := <-done:
		if err != nil {
			return out.String(), fmt.Errorf("run %q: %w", command, err)
		}
		return out.String(), nil
	}
}

// Close tears down the SSH connection.
func (r *SSHRunner) Close() error {
	return r.client.Close()
}

// hostKeyCallback verifies against known_hosts when a path is configured and
// falls back to accepting any host key otherwise.
func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("known_hosts %s: %w", knownHostsPath, err)
	}
	return cb, nil
}

func loadSigner(keyPath, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(data)
}
