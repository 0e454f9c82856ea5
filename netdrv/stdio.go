package netdrv

import (
	"io"
	"time"

	"github.com/go-ctcp/ctcp/ctcp"
)

// ReaderSource adapts an io.Reader to ctcp.Source. Any bytes read are
// returned as is; a read that yields no bytes and no error is reported as
// would-block (0); io.EOF, like any other read error, is reported as
// end-of-stream (-1), matching the convention the teacher's file-backed demo clients
// rely on (reading book.txt in chunks until EOF, then stopping).
type ReaderSource struct {
	r io.Reader
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) Input(buf []byte) int {
	n, err := s.r.Read(buf)
	if n > 0 {
		return n
	}
	if err != nil {
		return -1
	}
	return 0
}

// WriterSink adapts an io.Writer to ctcp.Sink. While open, BufSpace reports
// one full segment's worth (MaxSegDataSize), so no segment is ever held back
// for lack of space; once the sink is closed it reports 0.
type WriterSink struct {
	w      io.Writer
	closed bool
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Output(buf []byte) int {
	if s.closed {
		return -1
	}
	if len(buf) == 0 {
		s.closed = true
		return 0
	}
	n, err := s.w.Write(buf)
	if err != nil {
		s.closed = true
		return -1
	}
	return n
}

func (s *WriterSink) BufSpace() int {
	if s.closed {
		return 0
	}
	return ctcp.MaxSegDataSize
}

// SystemClock implements ctcp.Clock over wall-clock time.
type SystemClock struct{}

func (SystemClock) NowMs() int64 {
	return time.Now().UnixMilli()
}

var (
	_ ctcp.Source = (*ReaderSource)(nil)
	_ ctcp.Sink   = (*WriterSink)(nil)
	_ ctcp.Clock  = SystemClock{}
)
