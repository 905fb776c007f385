package b2

import "io"

// ProgressFunc reports transfer progress. transferred is cumulative bytes
// moved so far, total is the expected total (0 when unknown). May be nil.
type ProgressFunc func(transferred, total int64)

// progressReader counts bytes read through it and reports them to fn.
type progressReader struct {
	r     io.Reader
	total int64
	count int64
	fn    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}

	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.count += int64(n)
		p.fn(p.count, p.total)
	}

	return n, err
}

// progressWriter counts bytes written through it and reports them to fn.
type progressWriter struct {
	w     io.Writer
	total int64
	count int64
	fn    ProgressFunc
}

func newProgressWriter(w io.Writer, total int64, fn ProgressFunc) io.Writer {
	if fn == nil {
		return w
	}

	return &progressWriter{w: w, total: total, fn: fn}
}

func (p *progressWriter) Write(buf []byte) (int, error) {
	n, err := p.w.Write(buf)
	if n > 0 {
		p.count += int64(n)
		p.fn(p.count, p.total)
	}

	return n, err
}
