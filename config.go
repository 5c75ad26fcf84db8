package video_fetcher

import (
	"path/filepath"
	"strings"
	"text/template"

	"github.com/alanbriolat/video-fetcher/util"
)

// DefaultTargetFileTemplate names a download after its title.
const DefaultTargetFileTemplate = "{{.Title}}.{{.Ext}}"

// TargetConfig decides where a download is written.
type TargetConfig struct {
	TargetDir          string
	TargetFileTemplate *template.Template
	// OutputFile, if set, overrides everything else and is used as the path as-is.
	OutputFile string
}

func NewTargetConfig() TargetConfig {
	return TargetConfig{
		TargetDir:          ".",
		TargetFileTemplate: template.Must(template.New("target_file").Parse(DefaultTargetFileTemplate)),
	}
}

// ParseTargetFileTemplate replaces the file name template.
func (c *TargetConfig) ParseTargetFileTemplate(text string) error {
	tmpl, err := template.New("target_file").Parse(text)
	if err != nil {
		return err
	}
	c.TargetFileTemplate = tmpl
	return nil
}

func (c TargetConfig) GetTargetPath(args TargetFileArgs) (string, error) {
	if c.OutputFile != "" {
		return c.OutputFile, nil
	}
	args.Title = util.SanitizeTitle(args.Title)
	tmpl := c.TargetFileTemplate
	if tmpl == nil {
		tmpl = template.Must(template.New("target_file").Parse(DefaultTargetFileTemplate))
	}
	builder := strings.Builder{}
	if err := tmpl.Execute(&builder, &args); err != nil {
		return "", err
	}
	return filepath.Join(c.TargetDir, builder.String()), nil
}

type TargetFileArgs struct {
	Provider string
	Title    string
	Ext      string
}
