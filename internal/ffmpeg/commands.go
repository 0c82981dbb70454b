package ffmpeg

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/comcut/internal/commercial"
)

// codec settings applied to every cut segment
type EncodeOptions struct {
	VideoCodec string // e.g. libx264
	Preset     string // x264 preset
	CRF        int    // constant rate factor
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		VideoCodec: "libx264",
		Preset:     "veryfast",
		CRF:        20,
	}
}

// EncodeArgs returns the ffmpeg arguments (without the executable) that
// re-encode r of input into output. A ToEnd range has no -to.
func EncodeArgs(
	input, output string,
	r commercial.Range,
	opts EncodeOptions,
) []string {
	kwargs := ffmpeg.KwArgs{
		"ss":     seconds(r.Start),
		"c:v":    opts.VideoCodec,
		"preset": opts.Preset,
		"crf":    strconv.Itoa(opts.CRF),
		"c:a":    "aac",
		"strict": "-2",
	}
	if !r.ToEnd {
		kwargs["to"] = seconds(r.End)
	}

	return ffmpeg.Input(input).
		Output(output, kwargs).
		OverWriteOutput().
		GetArgs()
}

// ConcatArgs returns the arguments that join the files listed in manifest
// into output with stream copy.
func ConcatArgs(manifest, output string) []string {
	return ffmpeg.Input(manifest, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(output, ffmpeg.KwArgs{"c:v": "copy", "c:a": "copy"}).
		GetArgs()
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
