package render

// Markdown renders content with a renderer borrowed from the pool.
func Markdown(content string, opts Options) (string, error) {
	r, err := acquire(opts)
	if err != nil {
		return "", err
	}
	defer release(opts, r)
	return r.Render(content)
}
