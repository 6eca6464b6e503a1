package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"labgraph/internal/logger"
	"labgraph/internal/util"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/image/tiff"
)

// Luma weights used to collapse RGB image data to one channel.
const (
	lumaR = 0.2989
	lumaG = 0.5870
	lumaB = 0.1140
)

// Artifact is one characterization output file of a sample.
type Artifact struct {
	Name   string
	FID    string
	Output any
}

type ArtifactOptions struct {
	// ImageScale multiplies normalised [0,1] pixel intensities before the
	// greyscale conversion.
	ImageScale float64
	// OnSkip is called for every file that is not loaded.
	OnSkip func(fid, reason string)
}

// CharOutputs loads every artifact file in dir in name order. Files named
// "<prefix>_<name>.<ext>" with ext tif/tiff or csv are loaded; anything else
// is logged and skipped, as is a TIFF the decoder cannot read. A missing dir
// yields no artifacts.
func CharOutputs(dir string, opts ArtifactOptions) ([]Artifact, error) {
	fids, err := util.ListFiles(dir, "")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Logger.Warn().Str("dir", dir).Msg("no characterization artifact directory")
			return nil, nil
		}
		return nil, err
	}
	skip := func(fid, reason string) {
		logger.Logger.Warn().Str("fid", fid).Str("reason", reason).Msg("skipping characterization artifact")
		if opts.OnSkip != nil {
			opts.OnSkip(fid, reason)
		}
	}

	out := make([]Artifact, 0, len(fids))
	for _, fid := range fids {
		name, ok := joinKey(fid)
		if !ok {
			skip(fid, "name has no <prefix>_<name> form")
			continue
		}
		path := filepath.Join(dir, fid)
		var output any
		switch strings.ToLower(filepath.Ext(fid)) {
		case ".tif", ".tiff":
			output, err = loadImage(path, opts.ImageScale)
			if reason, ok := undecodable(err); ok {
				skip(fid, reason)
				continue
			}
		case ".csv":
			output, err = loadTable(path)
		default:
			skip(fid, "unsupported file type")
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{Name: name, FID: fid, Output: output})
	}
	return out, nil
}

// joinKey returns the part of fid between the first "_" and the first ".".
func joinKey(fid string) (string, bool) {
	_, rest, ok := strings.Cut(fid, "_")
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(rest, ".")
	return name, name != ""
}

// loadImage decodes the first page of a TIFF into an integer greyscale matrix.
func loadImage(path string, scale float64) ([][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode tiff %s: %w", filepath.Base(path), err)
	}
	bounds := img.Bounds()
	out := make([][]int, 0, bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := make([]int, 0, bounds.Dx())
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			v := scale * (lumaR*norm16(r) + lumaG*norm16(g) + lumaB*norm16(b))
			row = append(row, int(v))
		}
		out = append(out, row)
	}
	return out, nil
}

// undecodable reports whether err is a TIFF the decoder cannot read, such as
// a floating-point image.
func undecodable(err error) (string, bool) {
	var unsupported tiff.UnsupportedError
	var format tiff.FormatError
	if errors.As(err, &unsupported) || errors.As(err, &format) {
		return err.Error(), true
	}
	return "", false
}

func norm16(c uint32) float64 {
	return float64(c) / 0xffff
}

// loadTable reads a measurement CSV into column -> {row index -> value}. The
// first data row holds units and is dropped; indices keep their original
// position.
func loadTable(path string) (*orderedmap.OrderedMap[string, any], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read table header %s: %w", filepath.Base(path), err)
	}
	cols := make([]*orderedmap.OrderedMap[string, any], len(header))
	for i := range cols {
		cols[i] = orderedmap.New[string, any]()
	}
	for idx := 0; ; idx++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table %s: %w", filepath.Base(path), err)
		}
		if idx == 0 {
			continue
		}
		for i := range header {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			cols[i].Set(strconv.Itoa(idx), parseCell(cell))
		}
	}
	out := orderedmap.New[string, any]()
	for i, h := range header {
		out.Set(h, cols[i])
	}
	return out, nil
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
