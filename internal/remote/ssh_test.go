package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func writeTestKey(t *testing.T, passphrase string) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase != "" {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	} else {
		block, err = ssh.MarshalPrivateKey(priv, "")
	}
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestLoadSigner(t *testing.T) {
	path := writeTestKey(t, "")
	signer, err := loadSigner(path, "")
	require.NoError(t, err)
	require.Equal(t, "ssh-ed25519", signer.PublicKey().Type())
}

func TestLoadSignerWithPassphrase(t *testing.T) {
	path := writeTestKey(t, "sekrit")

	signer, err := loadSigner(path, "sekrit")
	require.NoError(t, err)
	require.Equal(t, "ssh-ed25519", signer.PublicKey().Type())

	_, err = loadSigner(path, "wrong")
	require.Error(t, err)
}

func TestLoadSignerMissingFile(t *testing.T) {
	_, err := loadSigner(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
}

func TestHostKeyCallbackInsecureWhenUnset(t *testing.T) {
	cb, err := hostKeyCallback("")
	require.NoError(t, err)
	require.NotNil(t, cb)
}

func TestHostKeyCallbackFromKnownHosts(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)

	line := knownhosts.Line([]string{"srva"}, sshPub)
	path := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o600))

	cb, err := hostKeyCallback(path)
	require.NoError(t, err)

	addr := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 22}
	require.NoError(t, cb("srva:22", addr, sshPub))

	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshOther, err := ssh.NewPublicKey(otherPub)
	require.NoError(t, err)
	require.Error(t, cb("srva:22", addr, sshOther))
}

func TestHostKeyCallbackMissingFile(t *testing.T) {
	_, err := hostKeyCallback(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "known_hosts")
}

func TestDialNoAuthMethod(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	_, err := Dial(Options{Host: "srva", User: "admin"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no SSH authentication method")
}

func TestDialBadKeyPath(t *testing.T) {
	_, err := Dial(Options{Host: "srva", User: "admin", KeyPath: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load key")
}
