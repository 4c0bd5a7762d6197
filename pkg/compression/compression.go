package compression

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Algorithm represents a compression algorithm for rule bundles
type Algorithm int

const (
	// AlgorithmNone indicates a plain, uncompressed file
	AlgorithmNone Algorithm = iota
	// AlgorithmSnappy is fast compression with moderate ratio
	AlgorithmSnappy
	// AlgorithmZstd is balanced compression with good speed and ratio (recommended)
	AlgorithmZstd
	// AlgorithmGzip is standard compression with good ratio
	AlgorithmGzip
	// AlgorithmZlib is similar to gzip
	AlgorithmZlib
)

// extensions maps file extensions to algorithms
var extensions = map[string]Algorithm{
	".sz":     AlgorithmSnappy,
	".snappy": AlgorithmSnappy,
	".zst":    AlgorithmZstd,
	".zstd":   AlgorithmZstd,
	".gz":     AlgorithmGzip,
	".zz":     AlgorithmZlib,
	".zlib":   AlgorithmZlib,
}

// String returns the string representation of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmSnappy:
		return "snappy"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmGzip:
		return "gzip"
	case AlgorithmZlib:
		return "zlib"
	default:
		return "unknown"
	}
}

// Extension returns the canonical file extension for the algorithm
func (a Algorithm) Extension() string {
	switch a {
	case AlgorithmSnappy:
		return ".sz"
	case AlgorithmZstd:
		return ".zst"
	case AlgorithmGzip:
		return ".gz"
	case AlgorithmZlib:
		return ".zz"
	default:
		return ""
	}
}

// ParseAlgorithm parses an algorithm name as printed by String
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return AlgorithmNone, nil
	case "snappy":
		return AlgorithmSnappy, nil
	case "zstd":
		return AlgorithmZstd, nil
	case "gzip":
		return AlgorithmGzip, nil
	case "zlib":
		return AlgorithmZlib, nil
	default:
		return AlgorithmNone, fmt.Errorf("unsupported compression algorithm: %s", name)
	}
}

// FromPath detects the compression of a file by its outer extension and returns
// the path with that extension removed ("orengo.yaml.zst" -> zstd, "orengo.yaml")
func FromPath(path string) (Algorithm, string) {
	ext := strings.ToLower(filepath.Ext(path))
	if alg, ok := extensions[ext]; ok {
		return alg, path[:len(path)-len(ext)]
	}
	return AlgorithmNone, path
}

// IsCompressedExtension reports whether ext (with leading dot) names a compression format
func IsCompressedExtension(ext string) bool {
	_, ok := extensions[strings.ToLower(ext)]
	return ok
}

// Config holds compression configuration
type Config struct {
	Algorithm Algorithm
	Level     int // Compression level (meaning varies by algorithm)
}

// DefaultConfig returns the default compression configuration (Zstd with default level)
func DefaultConfig() *Config {
	return &Config{
		Algorithm: AlgorithmZstd,
		Level:     3,
	}
}

// SnappyConfig returns configuration for Snappy (fast compression)
func SnappyConfig() *Config {
	return &Config{
		Algorithm: AlgorithmSnappy,
		Level:     0, // Snappy doesn't use levels
	}
}

// GzipConfig returns configuration for Gzip
func GzipConfig(level int) *Config {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &Config{
		Algorithm: AlgorithmGzip,
		Level:     level,
	}
}

// ZlibConfig returns configuration for Zlib
func ZlibConfig(level int) *Config {
	if level < zlib.NoCompression || level > zlib.BestCompression {
		level = zlib.DefaultCompression
	}
	return &Config{
		Algorithm: AlgorithmZlib,
		Level:     level,
	}
}

// ZstdConfig returns configuration for Zstd
func ZstdConfig(level int) *Config {
	// Zstd levels typically range from 1 (fastest) to 19 (best compression)
	if level < 1 || level > 19 {
		level = 3
	}
	return &Config{
		Algorithm: AlgorithmZstd,
		Level:     level,
	}
}

// ConfigFor returns a default-level configuration for alg
func ConfigFor(alg Algorithm) *Config {
	switch alg {
	case AlgorithmSnappy:
		return SnappyConfig()
	case AlgorithmGzip:
		return GzipConfig(gzip.DefaultCompression)
	case AlgorithmZlib:
		return ZlibConfig(zlib.DefaultCompression)
	case AlgorithmZstd:
		return DefaultConfig()
	default:
		return &Config{Algorithm: alg}
	}
}

// Compressor compresses and decompresses rule bundles. It is not safe for
// concurrent use.
type Compressor struct {
	config  *Config
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
}

// NewCompressor creates a new compressor with the given configuration
func NewCompressor(config *Config) (*Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Compressor{config: config}

	// Pre-create zstd encoder/decoder if using zstd
	if config.Algorithm == AlgorithmZstd {
		var err error
		encLevel := zstd.EncoderLevelFromZstd(config.Level)
		c.zstdEnc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}

		c.zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecompressedSize))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	return c, nil
}

// Compress encodes data with the configured algorithm
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	switch c.config.Algorithm {
	case AlgorithmNone:
		return data, nil
	case AlgorithmSnappy:
		return snappy.Encode(nil, data), nil
	case AlgorithmZstd:
		return c.zstdEnc.EncodeAll(data, nil), nil
	case AlgorithmGzip:
		return writeStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, c.config.Level)
		})
	case AlgorithmZlib:
		return writeStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return zlib.NewWriterLevel(w, c.config.Level)
		})
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %v", c.config.Algorithm)
	}
}

// Decompress decodes data. Output larger than MaxDecompressedSize is an error.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var (
		out []byte
		err error
	)
	switch c.config.Algorithm {
	case AlgorithmNone:
		return data, nil
	case AlgorithmSnappy:
		var n int
		if n, err = snappy.DecodedLen(data); err == nil && n > MaxDecompressedSize {
			return nil, errTooLarge
		}
		out, err = snappy.Decode(nil, data)
	case AlgorithmZstd:
		out, err = c.zstdDec.DecodeAll(data, nil)
	case AlgorithmGzip:
		out, err = readStream(data, func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) })
	case AlgorithmZlib:
		out, err = readStream(data, zlib.NewReader)
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %v", c.config.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.config.Algorithm, err)
	}
	return out, nil
}

// MaxDecompressedSize caps the decoded size of a rule bundle
const MaxDecompressedSize = 64 << 20

var errTooLarge = fmt.Errorf("decompressed data exceeds %d bytes", MaxDecompressedSize)

func writeStream(data []byte, open func(io.Writer) (io.WriteCloser, error)) ([]byte, error) {
	var buf bytes.Buffer
	w, err := open(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readStream(data []byte, open func(io.Reader) (io.ReadCloser, error)) ([]byte, error) {
	r, err := open(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecompressedSize {
		return nil, errTooLarge
	}
	return out, nil
}

// Close closes the compressor and releases resources
func (c *Compressor) Close() error {
	if c.zstdEnc != nil {
		c.zstdEnc.Close()
	}
	if c.zstdDec != nil {
		c.zstdDec.Close()
	}
	return nil
}

// Decompress is a convenience that decompresses data with a throwaway compressor
func Decompress(alg Algorithm, data []byte) ([]byte, error) {
	if alg == AlgorithmNone {
		return data, nil
	}
	c, err := NewCompressor(ConfigFor(alg))
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Decompress(data)
}

// CompressionRatio calculates the compression ratio
func CompressionRatio(originalSize, compressedSize int) float64 {
	if originalSize == 0 {
		return 0
	}
	return float64(compressedSize) / float64(originalSize)
}

// SpaceSavings calculates the space savings percentage
func SpaceSavings(originalSize, compressedSize int) float64 {
	if originalSize == 0 {
		return 0
	}
	return (1.0 - CompressionRatio(originalSize, compressedSize)) * 100
}
