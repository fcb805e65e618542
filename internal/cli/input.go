package cli

import (
	"errors"
	"io"
	"os"

	"github.com/tamirms/minisketch"
	"github.com/tamirms/minisketch/internal/fasta"
)

// input is one opened input file.
type input struct {
	src    minisketch.Source
	closer io.Closer
	kind   string
}

// openInput opens path as a packed sequence file when it carries the
// sequence magic, and as FASTA (possibly compressed) otherwise. "-" is
// always FASTA on stdin.
func openInput(path string) (*input, error) {
	if path != "-" {
		kind, err := sniff(path)
		if err != nil {
			return nil, err
		}
		switch kind {
		case minisketch.KindSequence:
			sf, err := minisketch.OpenSequenceFile(path)
			if err != nil {
				return nil, err
			}
			return &input{src: sf.Source(), closer: sf, kind: "pseq"}, nil
		case minisketch.KindSketch:
			return nil, errors.New("sketch files cannot be sketched again")
		}
	}
	r, err := fasta.Open(path)
	if err != nil {
		return nil, err
	}
	return &input{src: &fastaSource{r: r}, closer: r, kind: "fasta"}, nil
}

func sniff(path string) (minisketch.FileKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return minisketch.KindUnknown, err
	}
	defer f.Close()
	head := make([]byte, minisketch.MagicLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return minisketch.KindUnknown, err
	}
	return minisketch.DetectFileKind(head[:n]), nil
}

// fastaSource packs FASTA records into a reused word buffer.
type fastaSource struct {
	r     *fasta.Reader
	words []uint64
}

func (s *fastaSource) Next() (minisketch.Record, error) {
	rec, err := s.r.Next()
	if err != nil {
		return minisketch.Record{}, err
	}
	seq := minisketch.PackInto(s.words, rec.Seq)
	s.words = seq.Words
	return minisketch.Record{ID: rec.ID, Seq: seq}, nil
}
