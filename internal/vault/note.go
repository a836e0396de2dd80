package vault

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter keys owned by other systems; dropped from caller-supplied
// maps before writing.
var reservedFrontmatterKeys = []string{"tags", "topics", "aliases"}

// WriteNote writes a markdown note with a YAML frontmatter block under the
// vault root and returns its vault-relative path. The filename derives from
// the title, falling back to a timestamped name. Every written note is
// stamped ai_generated.
func (f *FS) WriteNote(title, body string, frontmatter map[string]any, folder string) (string, error) {
	filename := filenameFromTitle(title)
	rel := path.Join(strings.Trim(strings.TrimSpace(folder), "/"), filename)

	abs, err := f.safePath(rel)
	if err != nil {
		return "", err
	}

	fm := make(map[string]any, len(frontmatter)+2)
	for k, v := range frontmatter {
		fm[k] = v
	}
	for _, key := range reservedFrontmatterKeys {
		if _, ok := fm[key]; ok {
			slog.Warn("dropping reserved frontmatter key", slog.String("key", key))
			delete(fm, key)
		}
	}
	fm["ai_generated"] = true
	if title != "" {
		if _, ok := fm["title"]; !ok {
			fm["title"] = title
		}
	}

	yamlBlock, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("vault: marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(yamlBlock)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}

	if err := f.writeAtomic(abs, []byte(b.String())); err != nil {
		return "", err
	}
	return rel, nil
}

// filenameFromTitle keeps spaces and strips characters that are invalid in
// filenames. Path separators become spaces so a title can never nest.
func filenameFromTitle(title string) string {
	clean := strings.TrimSpace(title)
	if clean == "" {
		return fmt.Sprintf("ai-generated-%s.md", time.Now().Format("20060102-150405"))
	}
	replacer := strings.NewReplacer("/", " ", `\`, " ", ":", " ")
	clean = replacer.Replace(clean)
	for _, ch := range []string{"<", ">", `"`, "|", "?", "*"} {
		clean = strings.ReplaceAll(clean, ch, "")
	}
	clean = strings.Join(strings.Fields(clean), " ")
	return clean + ".md"
}
