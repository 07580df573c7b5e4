package pixfmt

import "fmt"

// Descriptor holds the static layout metadata of a format.
//
// The byte size of a row is derived from BytesPerPixelNum/BytesPerPixelDen
// after rounding the width up to RowPixelMultiple; see RowSize.
type Descriptor struct {
	Format           Format
	Name             string
	BytesPerPixelNum int
	BytesPerPixelDen int
	Planar           bool
	Planes           int
	WidthMultiple    int
	HeightMultiple   int
	RowPixelMultiple int
	// ChromaShiftX and ChromaShiftY are log2 of the chroma subsampling
	// factors; both are zero for RGB formats.
	ChromaShiftX int
	ChromaShiftY int
	BitDepth     int
}

var descriptors = [FormatCount]Descriptor{
	YUYV: {
		Format: YUYV, Name: "YUYV",
		BytesPerPixelNum: 2, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 2, HeightMultiple: 1, RowPixelMultiple: 1,
		ChromaShiftX: 1, BitDepth: 8,
	},
	UYVY: {
		Format: UYVY, Name: "UYVY",
		BytesPerPixelNum: 2, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 2, HeightMultiple: 1, RowPixelMultiple: 1,
		ChromaShiftX: 1, BitDepth: 8,
	},
	YUV422P: {
		Format: YUV422P, Name: "YUV422P",
		BytesPerPixelNum: 2, BytesPerPixelDen: 1,
		Planar: true, Planes: 3, WidthMultiple: 2, HeightMultiple: 1, RowPixelMultiple: 1,
		ChromaShiftX: 1, BitDepth: 8,
	},
	YUV420P: {
		Format: YUV420P, Name: "YUV420P",
		BytesPerPixelNum: 3, BytesPerPixelDen: 2,
		Planar: true, Planes: 3, WidthMultiple: 2, HeightMultiple: 2, RowPixelMultiple: 1,
		ChromaShiftX: 1, ChromaShiftY: 1, BitDepth: 8,
	},
	ARGB: {
		Format: ARGB, Name: "ARGB",
		BytesPerPixelNum: 4, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 1, HeightMultiple: 1, RowPixelMultiple: 1,
		BitDepth: 8,
	},
	BGRA: {
		Format: BGRA, Name: "BGRA",
		BytesPerPixelNum: 4, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 1, HeightMultiple: 1, RowPixelMultiple: 1,
		BitDepth: 8,
	},
	RGB24: {
		Format: RGB24, Name: "RGB24",
		BytesPerPixelNum: 3, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 1, HeightMultiple: 1, RowPixelMultiple: 1,
		BitDepth: 8,
	},
	BGR24: {
		Format: BGR24, Name: "BGR24",
		BytesPerPixelNum: 3, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 1, HeightMultiple: 1, RowPixelMultiple: 1,
		BitDepth: 8,
	},
	R210: {
		Format: R210, Name: "R210",
		BytesPerPixelNum: 4, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 1, HeightMultiple: 1, RowPixelMultiple: 1,
		BitDepth: 10,
	},
	R10K: {
		Format: R10K, Name: "R10K",
		BytesPerPixelNum: 4, BytesPerPixelDen: 1,
		Planes: 1, WidthMultiple: 1, HeightMultiple: 1, RowPixelMultiple: 1,
		BitDepth: 10,
	},
	// V210 packs 6 pixels into 16 bytes and pads each row to 48 pixels.
	V210: {
		Format: V210, Name: "V210",
		BytesPerPixelNum: 8, BytesPerPixelDen: 3,
		Planes: 1, WidthMultiple: 2, HeightMultiple: 1, RowPixelMultiple: 48,
		ChromaShiftX: 1, BitDepth: 10,
	},
}

// Describe returns the descriptor of f. It panics on a value outside the
// enumeration: that is a build-time mismatch, not a runtime condition.
func Describe(f Format) Descriptor {
	if f < 0 || f >= FormatCount {
		panic(fmt.Sprintf("pixfmt: describe of unknown format %d", int(f)))
	}
	return descriptors[f]
}
