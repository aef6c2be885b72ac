// Package render turns model output into styled terminal markdown.
package render

// Options selects a glamour renderer. Options is comparable and doubles as
// the renderer pool key.
type Options struct {
	Width int
	// Style is a builtin glamour name, a palette name, or a JSON style path.
	Style            string
	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            ThemeDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// WithWidth returns a copy wrapping at width columns.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}
