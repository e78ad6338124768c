// Package junos implements the device contracts over NETCONF for Junos
// switches.
package junos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Juniper/go-netconf/netconf"
	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/device"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

// executor is the part of *netconf.Session the device uses.
type executor interface {
	Exec(methods ...netconf.RPCMethod) (*netconf.RPCReply, error)
	Close() error
}

type dialFunc func(target string, config *ssh.ClientConfig, timeout time.Duration) (executor, error)

func dialSSH(target string, config *ssh.ClientConfig, timeout time.Duration) (executor, error) {
	s, err := netconf.DialSSHTimeout(target, config, timeout)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Dialer opens NETCONF sessions.
type Dialer struct {
	SSH device.SSHOptions
	// OperationTimeout bounds every RPC round-trip. Zero means no bound
	// beyond the caller's context.
	OperationTimeout time.Duration

	dial dialFunc
}

// NewDialer creates a Dialer with the given options.
func NewDialer(ssh device.SSHOptions, operationTimeout time.Duration) *Dialer {
	return &Dialer{SSH: ssh, OperationTimeout: operationTimeout, dial: dialSSH}
}

// Dial connects to address (port 830 unless given) and returns the device.
// Failures are *util.ConnectionError.
func (d *Dialer) Dial(ctx context.Context, address string, creds device.Credentials) (device.Device, error) {
	cfg, err := device.SSHClientConfig(creds, d.SSH)
	if err != nil {
		return nil, &util.ConnectionError{Address: address, Err: err}
	}

	dial := d.dial
	if dial == nil {
		dial = dialSSH
	}

	type result struct {
		exec executor
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		exec, err := dial(device.NetconfTarget(address), cfg, d.SSH.Timeout)
		ch <- result{exec, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, &util.ConnectionError{Address: address, Err: r.err}
		}
		util.WithDevice(address).Debug("NETCONF session established")
		return &Device{address: address, exec: r.exec, timeout: d.OperationTimeout}, nil
	case <-ctx.Done():
		// close the session if the dial completes later
		go func() {
			if r := <-ch; r.err == nil {
				r.exec.Close()
			}
		}()
		return nil, &util.ConnectionError{Address: address, Err: ctx.Err()}
	}
}

// Device is a NETCONF session to a Junos switch. RPCs are serialized; a
// NETCONF session carries one outstanding request at a time.
type Device struct {
	address string
	exec    executor
	timeout time.Duration

	mu       sync.Mutex
	closed   bool
	hostname string
}

// Address returns the address the device was dialed on.
func (d *Device) Address() string {
	return d.address
}

// call runs one RPC. If ctx ends first the session is closed, since a late
// reply would desynchronize the framing; the device drops any configuration
// lock held by a closed session. Only an expired deadline is a timeout;
// cancellation by the caller is returned as the context error.
func (d *Device) call(ctx context.Context, op string, m netconf.RPCMethod) (*netconf.RPCReply, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("%s on %s: %w", op, d.address, util.ErrNotConnected)
	}

	type result struct {
		reply *netconf.RPCReply
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		reply, err := d.exec.Exec(m)
		ch <- result{reply, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return r.reply, r.err
		}
		if err := replyError(r.reply); err != nil {
			return r.reply, err
		}
		return r.reply, nil
	case <-ctx.Done():
		d.closed = true
		d.exec.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &util.TimeoutError{Device: d.address, Operation: op, Err: ctx.Err()}
		}
		return nil, fmt.Errorf("%s on %s aborted: %w", op, d.address, ctx.Err())
	}
}

// Hostname returns the host name from the software information, falling back
// to the address when the device does not report one.
func (d *Device) Hostname(ctx context.Context) (string, error) {
	d.mu.Lock()
	cached := d.hostname
	d.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	reply, err := d.call(ctx, "get-software-information", softwareInformationRPC())
	if err != nil {
		return "", err
	}
	tree, err := replyTree(reply)
	if err != nil {
		return "", fmt.Errorf("software information from %s: %w", d.address, err)
	}
	name := ""
	if el := tree.Root().FindElement(".//host-name"); el != nil {
		name = strings.TrimSpace(el.Text())
	}
	if name == "" {
		util.WithDevice(d.address).Warnf("Device reported no host-name, using address")
		name = d.address
	}
	d.mu.Lock()
	d.hostname = name
	d.mu.Unlock()
	return name, nil
}

// GetConfig fetches the committed configuration.
func (d *Device) GetConfig(ctx context.Context, format device.Format) (*configtree.Tree, error) {
	reply, err := d.call(ctx, "get-configuration", getConfigurationRPC(format))
	if err != nil {
		return nil, err
	}
	tree, err := replyTree(reply)
	if err != nil {
		return nil, fmt.Errorf("%s configuration from %s: %w", format, d.address, err)
	}
	return tree, nil
}

// EditSession returns a session bound to this connection.
func (d *Device) EditSession() device.EditSession {
	return &session{dev: d}
}

// Close ends the NETCONF session.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	util.WithDevice(d.address).Debug("NETCONF session closed")
	return d.exec.Close()
}
