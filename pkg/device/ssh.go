package device

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/newtron-network/tnmigrate/pkg/util"
)

// NetconfPort is the IANA NETCONF-over-SSH port.
const NetconfPort = "830"

// SSHOptions controls how the SSH transport authenticates devices.
type SSHOptions struct {
	// KnownHostsFile enables host key verification. When empty, host keys
	// are not checked.
	KnownHostsFile string
	// Timeout bounds the TCP connect and SSH handshake.
	Timeout time.Duration
}

// SSHClientConfig builds the client configuration for a NETCONF session.
// Password and keyboard-interactive authentication both answer with the
// password; Junos offers the latter by default.
func SSHClientConfig(creds Credentials, opts SSHOptions) (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if opts.KnownHostsFile != "" {
		cb, err := knownhosts.New(opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts %s: %w", opts.KnownHostsFile, err)
		}
		hostKeyCallback = cb
	} else {
		util.Logger.Debug("SSH host key verification disabled (no known_hosts file configured)")
	}

	password := creds.Password
	return &ssh.ClientConfig{
		User: creds.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         opts.Timeout,
	}, nil
}

// NetconfTarget appends the NETCONF port to address unless it already names
// a port.
func NetconfTarget(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, NetconfPort)
}
