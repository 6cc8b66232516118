package grid

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// File extensions understood by Load and Save.
const (
	ExtCSV    = ".csv"
	ExtBinary = ".grid.zst"
)

// gridFile is the msgpack payload of a binary grid file.
type gridFile struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	Cost []float64 `msgpack:"cost"`
}

// Load reads a cost matrix from a headerless CSV file or a zstd-compressed
// msgpack grid file, chosen by extension.
func Load(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid: %w", err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ExtBinary):
		return ReadBinary(f)
	case strings.HasSuffix(path, ExtCSV):
		return ReadCSV(f)
	}
	return nil, fmt.Errorf("grid: unsupported file %q (want %s or %s)", path, ExtCSV, ExtBinary)
}

// Save writes a cost matrix in the format implied by the extension.
func Save(path string, cost *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating grid file: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ExtBinary):
		err = WriteBinary(f, cost)
	case strings.HasSuffix(path, ExtCSV):
		err = WriteCSV(f, cost)
	default:
		err = fmt.Errorf("grid: unsupported file %q (want %s or %s)", path, ExtCSV, ExtBinary)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadCSV parses one grid row per record. NaN, Inf and negative values are
// kept as-is and act as obstacles.
func ReadCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing grid csv: %w", err)
	}
	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = make([]float64, len(rec))
		for j, s := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("grid csv row %d col %d: %w", i, j, err)
			}
			rows[i][j] = v
		}
	}
	return DenseFromRows(rows)
}

// WriteCSV writes one record per grid row.
func WriteCSV(w io.Writer, cost *mat.Dense) error {
	rows, cols := cost.Dims()
	cw := csv.NewWriter(w)
	rec := make([]string, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rec[c] = strconv.FormatFloat(cost.At(r, c), 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing grid csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadBinary decodes a zstd-compressed msgpack grid.
func ReadBinary(r io.Reader) (*mat.Dense, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	defer zr.Close()

	var gf gridFile
	if err := msgpack.NewDecoder(zr).Decode(&gf); err != nil {
		return nil, fmt.Errorf("decoding grid: %w", err)
	}
	if gf.Rows <= 0 || gf.Cols <= 0 {
		return nil, ErrEmptyGrid
	}
	if len(gf.Cost) != gf.Rows*gf.Cols {
		return nil, fmt.Errorf("grid: %d values for %dx%d grid", len(gf.Cost), gf.Rows, gf.Cols)
	}
	return mat.NewDense(gf.Rows, gf.Cols, gf.Cost), nil
}

// WriteBinary encodes cost as msgpack and compresses it with zstd.
func WriteBinary(w io.Writer, cost *mat.Dense) error {
	rows, cols := cost.Dims()
	gf := gridFile{Rows: rows, Cols: cols, Cost: make([]float64, 0, rows*cols)}
	for r := 0; r < rows; r++ {
		gf.Cost = append(gf.Cost, cost.RawRowView(r)...)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("opening zstd writer: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(&gf); err != nil {
		zw.Close()
		return fmt.Errorf("encoding grid: %w", err)
	}
	return zw.Close()
}
