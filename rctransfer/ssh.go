package rctransfer

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig describes a console server reached over SSH.
type SSHConfig struct {
	// Address is host:port
	Address string

	// User is the login name
	User string

	// Command is run instead of a shell, e.g. a console server's port selector
	Command string

	// Password is asked for when the server wants password authentication
	Password func() (string, error)

	// KeyFile is a private key used before falling back to the password
	KeyFile string

	// KnownHosts is the known_hosts file used to verify the server
	KnownHosts string

	// InsecureIgnoreHostKey skips host key verification
	InsecureIgnoreHostKey bool

	// Timeout bounds each read; a quiet console reads as end of stream
	Timeout time.Duration
}

// ParseSSHPort parses ssh://user@host[:port][/command].
func ParseSSHPort(port string) (SSHConfig, error) {
	u, err := url.Parse(port)
	if err != nil || !strings.EqualFold(u.Scheme, "ssh") || u.Host == "" {
		return SSHConfig{}, NewError(ErrConfig, fmt.Sprintf("invalid SSH port %q; expected ssh://user@host[:port][/command]", port))
	}
	config := SSHConfig{
		Address: u.Host,
		Command: strings.TrimPrefix(u.Path, "/"),
		Timeout: DefaultTimeout,
	}
	if u.Port() == "" {
		config.Address = net.JoinHostPort(u.Hostname(), "22")
	}
	if u.User != nil {
		config.User = u.User.Username()
	}
	if config.User == "" {
		config.User = os.Getenv("USER")
	}
	if home, err := os.UserHomeDir(); err == nil {
		config.KnownHosts = filepath.Join(home, ".ssh", "known_hosts")
	}
	return config, nil
}

// DialSSH connects to the console server and starts the console command.
func DialSSH(config SSHConfig) (Link, error) {
	hostKey, err := config.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	clientConfig := &ssh.ClientConfig{
		User:            config.User,
		Auth:            config.authMethods(),
		HostKeyCallback: hostKey,
		Timeout:         10 * time.Second,
	}
	client, err := ssh.Dial("tcp", config.Address, clientConfig)
	if err != nil {
		return nil, WrapError(ErrTransport, fmt.Sprintf("connection failure on %s", config.Address), err)
	}
	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, WrapError(ErrTransport, "cannot open SSH session", err)
	}

	stream, err := newSSHStream(client, session, config.Timeout)
	if err != nil {
		session.Close()
		client.Close()
		return nil, WrapError(ErrTransport, "cannot open SSH session", err)
	}
	if config.Command != "" {
		err = session.Start(config.Command)
	} else {
		modes := ssh.TerminalModes{ssh.ECHO: 0, ssh.TTY_OP_ISPEED: 115200, ssh.TTY_OP_OSPEED: 115200}
		if err = session.RequestPty("vt100", 24, 80, modes); err == nil {
			err = session.Shell()
		}
	}
	if err != nil {
		stream.Close()
		return nil, WrapError(ErrTransport, "cannot start remote console", err)
	}
	go stream.pump()
	return NewStreamLink(stream, LinkSSH, "ssh://"+config.User+"@"+config.Address), nil
}

func (c SSHConfig) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	callback, err := knownhosts.New(c.KnownHosts)
	if err != nil {
		return nil, WrapError(ErrConfig, fmt.Sprintf("cannot read known hosts %s", c.KnownHosts), err)
	}
	return callback, nil
}

func (c SSHConfig) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if c.KeyFile != "" {
		if pem, err := os.ReadFile(c.KeyFile); err == nil {
			if signer, err := ssh.ParsePrivateKey(pem); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}
	if c.Password != nil {
		methods = append(methods, ssh.PasswordCallback(c.Password))
	}
	return methods
}

// sshStream turns the session's stdout into reads that give up after the
// timeout, like a serial port with an inter-character timeout.
type sshStream struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	timeout time.Duration

	chunks  chan []byte
	pending []byte
	done    chan struct{}
	once    sync.Once
	err     error
}

func newSSHStream(client *ssh.Client, session *ssh.Session, timeout time.Duration) (*sshStream, error) {
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &sshStream{
		client:  client,
		session: session,
		stdin:   stdin,
		stdout:  stdout,
		timeout: timeout,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
	}, nil
}

func (s *sshStream) pump() {
	defer close(s.chunks)
	buf := make([]byte, 1024)
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			return
		}
	}
}

// Read returns 0 bytes and a nil error when nothing arrives in time.
func (s *sshStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				if s.err != nil {
					return 0, s.err
				}
				return 0, io.EOF
			}
			s.pending = chunk
		case <-timer.C:
			return 0, nil
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *sshStream) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *sshStream) Close() error {
	var errs []error
	s.once.Do(func() { close(s.done) })
	if err := s.stdin.Close(); err != nil && err != io.EOF {
		errs = append(errs, err)
	}
	if err := s.session.Close(); err != nil && err != io.EOF {
		errs = append(errs, err)
	}
	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
