package progress

import "io"

// Reader wraps an io.Reader and reports progress via a callback every
// interval bytes, and once more when the read crosses 5% of a known total.
type Reader struct {
	Reader     io.Reader
	Total      int64
	OnProgress func(read int64, total int64)

	totalRead      int64
	sinceReport    int64
	reportInterval int64
}

// NewReader wraps r. A total of 0 or less means the size is unknown.
func NewReader(r io.Reader, total int64, interval int64, cb func(read int64, total int64)) *Reader {
	return &Reader{
		Reader:         r,
		Total:          total,
		OnProgress:     cb,
		reportInterval: interval,
	}
}

// BytesRead returns the number of bytes read so far.
func (pr *Reader) BytesRead() int64 {
	return pr.totalRead
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.totalRead += int64(n)
		pr.sinceReport += int64(n)

		if pr.sinceReport >= pr.reportInterval || pr.crossedFirstStep(int64(n)) {
			if pr.OnProgress != nil {
				pr.OnProgress(pr.totalRead, pr.Total)
			}
			pr.sinceReport = 0
		}
	}
	return n, err
}

func (pr *Reader) crossedFirstStep(n int64) bool {
	return pr.Total > 0 && pr.totalRead*100/pr.Total >= 5 && (pr.totalRead-n)*100/pr.Total < 5
}
