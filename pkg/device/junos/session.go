package junos

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/device"
)

// session maps the edit-session contract onto Junos configuration RPCs.
type session struct {
	dev *Device
}

func (s *session) Lock(ctx context.Context) error {
	_, err := s.dev.call(ctx, "lock-configuration", lockRPC())
	return err
}

func (s *session) RollbackToBaseline(ctx context.Context) error {
	_, err := s.dev.call(ctx, "rollback 0", rollbackRPC())
	return err
}

func (s *session) MergeText(ctx context.Context, content string, format device.Format) error {
	if format == device.FormatXML {
		tree, err := configtree.Parse(content)
		if err != nil {
			return err
		}
		return s.MergeTree(ctx, tree.Root())
	}
	rpc, err := loadTextRPC(content, format)
	if err != nil {
		return err
	}
	_, err = s.dev.call(ctx, "load-configuration", rpc)
	return err
}

func (s *session) MergeTree(ctx context.Context, subtree *etree.Element) error {
	if subtree == nil {
		return fmt.Errorf("nil subtree")
	}
	_, err := s.dev.call(ctx, "load-configuration", loadTreeRPC(subtree))
	return err
}

func (s *session) Diff(ctx context.Context) (string, error) {
	reply, err := s.dev.call(ctx, "compare rollback 0", diffRPC())
	if err != nil {
		return "", err
	}
	tree, err := replyTree(reply)
	if err != nil {
		return "", fmt.Errorf("diff from %s: %w", s.dev.address, err)
	}
	out := tree.Root()
	if el := out.FindElement(".//configuration-output"); el != nil {
		out = el
	}
	return strings.TrimSpace(out.Text()), nil
}

func (s *session) Commit(ctx context.Context) error {
	_, err := s.dev.call(ctx, "commit-configuration", commitRPC())
	return err
}

func (s *session) Unlock(ctx context.Context) error {
	_, err := s.dev.call(ctx, "unlock-configuration", unlockRPC())
	return err
}
