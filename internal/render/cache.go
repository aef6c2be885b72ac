package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// glamour.TermRenderer must not render concurrently, so renderers are
// pooled per Options rather than shared.
var (
	poolMu sync.Mutex
	pools  = map[Options]*sync.Pool{}
)

func poolFor(opts Options) *sync.Pool {
	poolMu.Lock()
	defer poolMu.Unlock()

	p, ok := pools[opts]
	if !ok {
		p = &sync.Pool{}
		pools[opts] = p
	}
	return p
}

// acquire returns a pooled renderer for opts or builds a new one.
// Build errors (a bad style path) are returned every time, never cached.
func acquire(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := poolFor(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return newRenderer(opts)
}

func release(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		poolFor(opts).Put(r)
	}
}

// newRenderer builds a TermRenderer. Palette names get a generated style;
// everything else goes to glamour as a builtin name or a JSON path.
func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	ro := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if cfg, ok := paletteStyle(opts.Style); ok && !glamourStyles[opts.Style] {
		ro = append(ro, glamour.WithStyles(cfg))
	} else {
		ro = append(ro, glamour.WithStylePath(opts.Style))
	}
	if opts.EnableEmoji {
		ro = append(ro, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		ro = append(ro, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(ro...)
}

// resetRenderers drops every pooled renderer.
func resetRenderers() {
	poolMu.Lock()
	pools = map[Options]*sync.Pool{}
	poolMu.Unlock()
}

func pooledConfigs() int {
	poolMu.Lock()
	defer poolMu.Unlock()
	return len(pools)
}
