package junos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Juniper/go-netconf/netconf"
	"github.com/beevik/etree"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/device"
)

// newRPC builds an RPC element. attrs are key/value pairs.
func newRPC(tag string, attrs ...string) *etree.Element {
	e := etree.NewElement(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		e.CreateAttr(attrs[i], attrs[i+1])
	}
	return e
}

func method(e *etree.Element) netconf.RawMethod {
	doc := etree.NewDocument()
	doc.SetRoot(e)
	s, _ := doc.WriteToString()
	return netconf.RawMethod(s)
}

func getConfigurationRPC(format device.Format) netconf.RawMethod {
	if format == device.FormatXML {
		return method(newRPC("get-configuration"))
	}
	return method(newRPC("get-configuration", "format", string(format)))
}

func softwareInformationRPC() netconf.RawMethod {
	return method(newRPC("get-software-information"))
}

func lockRPC() netconf.RawMethod {
	return method(newRPC("lock-configuration"))
}

func unlockRPC() netconf.RawMethod {
	return method(newRPC("unlock-configuration"))
}

func rollbackRPC() netconf.RawMethod {
	return method(newRPC("load-configuration", "rollback", "0"))
}

func commitRPC() netconf.RawMethod {
	return method(newRPC("commit-configuration"))
}

func diffRPC() netconf.RawMethod {
	return method(newRPC("get-configuration", "compare", "rollback", "rollback", "0", "format", "text"))
}

// loadTextRPC merges a text or set rendering.
func loadTextRPC(content string, format device.Format) (netconf.RawMethod, error) {
	switch format {
	case device.FormatText:
		rpc := newRPC("load-configuration", "action", "merge", "format", "text")
		rpc.CreateElement("configuration-text").SetText(content)
		return method(rpc), nil
	case device.FormatSet:
		rpc := newRPC("load-configuration", "action", "set", "format", "text")
		rpc.CreateElement("configuration-set").SetText(content)
		return method(rpc), nil
	default:
		return "", fmt.Errorf("unsupported text format %q", format)
	}
}

// loadTreeRPC merges a subtree, wrapping it in <configuration> unless it
// already is one. The subtree is copied; the caller's tree is not modified.
func loadTreeRPC(subtree *etree.Element) netconf.RawMethod {
	rpc := newRPC("load-configuration", "action", "merge", "format", "xml")
	if subtree.Tag == configtree.TagConfiguration {
		rpc.AddChild(subtree.Copy())
	} else {
		rpc.CreateElement(configtree.TagConfiguration).AddChild(subtree.Copy())
	}
	return method(rpc)
}

// replyError reports errors Junos nests inside result elements
// (load-configuration-results, commit-results). go-netconf only inspects
// top-level rpc-error elements.
func replyError(reply *netconf.RPCReply) error {
	if reply == nil || strings.TrimSpace(reply.Data) == "" {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<reply>" + reply.Data + "</reply>"); err != nil {
		return fmt.Errorf("parsing reply: %w", err)
	}

	var messages []string
	for _, rpcErr := range doc.FindElements("//rpc-error") {
		severity, _ := configtree.ChildText(rpcErr, "error-severity")
		if severity != "" && severity != "error" {
			continue
		}
		msg, _ := configtree.ChildText(rpcErr, "error-message")
		if path, ok := configtree.ChildText(rpcErr, "error-path"); ok && path != "" {
			msg = path + ": " + msg
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		return fmt.Errorf("%s", strings.Join(messages, "; "))
	}

	if countEl := doc.FindElement("//load-error-count"); countEl != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(countEl.Text())); err == nil && n > 0 {
			return fmt.Errorf("%d load error(s) reported", n)
		}
	}
	return nil
}

// replyTree parses the payload of a reply.
func replyTree(reply *netconf.RPCReply) (*configtree.Tree, error) {
	if reply == nil {
		return nil, fmt.Errorf("empty reply")
	}
	return configtree.Parse(reply.Data)
}
