// Package diag saves screenshots and HTML of pages that did not extract
// cleanly, for offline debugging.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/amishk599/staywatch/internal/render"
)

// Dumper writes <dir>/<tag>_<YYYYmmdd_HHMMSS_mmm>.{png,html}, adding a _N
// suffix when that name is taken. All failures are logged and swallowed.
type Dumper struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewDumper returns a dumper writing under dir.
func NewDumper(dir string, logger *slog.Logger) *Dumper {
	return &Dumper{dir: dir, now: time.Now, logger: logger}
}

// Dump captures page under tag.
func (d *Dumper) Dump(ctx context.Context, page render.Page, tag string) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.Warn("diagnostic dump skipped", "tag", tag, "error", err)
		return
	}
	base := d.freeBase(tag)

	if png, err := page.Screenshot(ctx); err != nil {
		d.logger.Debug("diagnostic screenshot failed", "tag", tag, "error", err)
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		d.logger.Warn("writing diagnostic screenshot", "path", base+".png", "error", err)
	}

	html, err := page.Content(ctx)
	if err != nil {
		d.logger.Warn("diagnostic content failed", "tag", tag, "error", err)
		return
	}
	if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		d.logger.Warn("writing diagnostic html", "path", base+".html", "error", err)
		return
	}
	d.logger.Info("diagnostic dump saved", "tag", tag, "path", base+".html", "url", page.URL())
}

// freeBase returns a path stem under dir that no earlier dump used.
func (d *Dumper) freeBase(tag string) string {
	t := d.now()
	stem := filepath.Join(d.dir, fmt.Sprintf("%s_%s_%03d", tag, t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond)))
	base := stem
	for i := 2; ; i++ {
		if _, err := os.Stat(base + ".html"); os.IsNotExist(err) {
			return base
		}
		base = fmt.Sprintf("%s_%d", stem, i)
	}
}
