package apply

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flosch/pongo2"

	"github.com/newtron-network/tnmigrate/pkg/device"
)

// TemplateFormat infers the rendering of a template from its extension:
// .set files hold set commands, .xml files a configuration element, anything
// else (.j2, .conf, .tmpl) the text rendering.
func TemplateFormat(path string) device.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".set":
		return device.FormatSet
	case ".xml":
		return device.FormatXML
	default:
		return device.FormatText
	}
}

// RenderTemplate renders the Jinja2 template at path with data as its
// context. Output is not HTML-escaped; configuration text is emitted as is.
func RenderTemplate(path string, data map[string]any) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	tpl, err := pongo2.FromString("{% autoescape off %}" + string(raw) + "{% endautoescape %}")
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", path, err)
	}
	ctx := pongo2.Context{}
	for k, v := range data {
		ctx[k] = v
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("rendering template %s: %w", path, err)
	}
	return out, nil
}
