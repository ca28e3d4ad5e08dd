package main

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/engine"
	"github.com/ankit-chaubey/metascrub/core/exif/exiftest"
)

var (
	dms1h30 = [3][2]uint32{{1, 1}, {30, 1}, {0, 1}}
	dms2h15 = [3][2]uint32{{2, 1}, {15, 1}, {0, 1}}
)

func cameraJPEG() []byte {
	b := exiftest.Builder{
		IFD0: []exiftest.Entry{
			exiftest.ASCII(0x010F, "Canon"),
			exiftest.ASCII(0x0110, "EOS 5D"),
		},
		GPS: exiftest.GPS("N", dms1h30, "E", dms2h15),
	}
	return exiftest.JPEG(b.APP1())
}

func request(method, uri, contentType string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if contentType != "" {
		ctx.Request.Header.SetContentType(contentType)
	}
	ctx.Request.SetBody(body)
	return ctx
}

func serve(t *testing.T, ctx *fasthttp.RequestCtx) *fasthttp.RequestCtx {
	t.Helper()
	newAPI(engine.New(engine.Options{Precision: core.PrecisionExact}), zerolog.Nop()).handle(ctx)
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	require.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v))
}

func TestServeHealthz(t *testing.T) {
	ctx := serve(t, request("GET", "/healthz", "", nil))
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "ok", string(ctx.Response.Body()))
}

func TestServeClean(t *testing.T) {
	in := cameraJPEG()
	ctx := serve(t, request("POST", "/clean?format=jpg", "", in))

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "image/jpeg", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "1", string(ctx.Response.Header.Peek("X-Dropped-Units")))
	assert.Equal(t, "true", string(ctx.Response.Header.Peek("X-Clean-Complete")))

	want, err := engine.Clean(in, "jpg")
	require.NoError(t, err)
	assert.Equal(t, want, ctx.Response.Body())
}

func TestServeCleanPDFIsPartial(t *testing.T) {
	ctx := serve(t, request("POST", "/clean?format=pdf", "", []byte("%PDF-1.4\n%%EOF\n")))

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "false", string(ctx.Response.Header.Peek("X-Clean-Complete")))
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Clean-Note"))
}

func TestServeCleanErrors(t *testing.T) {
	cases := []struct {
		name string
		uri  string
		body []byte
		want int
	}{
		{"missing format", "/clean", []byte("x"), fasthttp.StatusBadRequest},
		{"unknown format", "/clean?format=bmp", []byte("x"), fasthttp.StatusUnsupportedMediaType},
		{"not implemented", "/clean?format=avif", []byte("x"), fasthttp.StatusNotImplemented},
		{"bad signature", "/clean?format=png", []byte("not a png"), fasthttp.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := serve(t, request("POST", tc.uri, "", tc.body))
			assert.Equal(t, tc.want, ctx.Response.StatusCode())

			var body map[string]string
			decode(t, ctx, &body)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestServeExtract(t *testing.T) {
	ctx := serve(t, request("POST", "/extract", "", cameraJPEG()))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var body struct {
		Metadata map[string]string  `json:"metadata"`
		GPS      *core.GPSCoordinate `json:"gps"`
		Risk     core.PrivacyRisk    `json:"risk"`
	}
	decode(t, ctx, &body)
	assert.Equal(t, "Canon", body.Metadata["Make"])
	require.NotNil(t, body.GPS)
	assert.InDelta(t, 1.5, body.GPS.Latitude, 1e-6)
	assert.Equal(t, core.RiskHigh, body.Risk.Level)
}

func TestServeInspect(t *testing.T) {
	ctx := serve(t, request("POST", "/inspect?name=photo.jpg", "image/jpeg; charset=binary", cameraJPEG()))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var r core.Report
	decode(t, ctx, &r)
	assert.Equal(t, "photo.jpg", r.Name)
	assert.Equal(t, "image/jpeg", r.MIME)
	assert.Equal(t, core.FmtJPEG, r.Format)
	assert.Len(t, r.SHA256, 64)
}

func TestServeInspectUnknown(t *testing.T) {
	ctx := serve(t, request("POST", "/inspect?name=notes.txt", "application/octet-stream", []byte("plain text")))
	assert.Equal(t, fasthttp.StatusUnsupportedMediaType, ctx.Response.StatusCode())
}

func TestServeFormats(t *testing.T) {
	ctx := serve(t, request("GET", "/formats", "", nil))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var caps []core.FormatInfo
	decode(t, ctx, &caps)
	assert.Len(t, caps, len(core.Formats))
}

func TestServeRouting(t *testing.T) {
	ctx := serve(t, request("GET", "/clean", "", nil))
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = serve(t, request("POST", "/formats", "", nil))
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = serve(t, request("GET", "/nope", "", nil))
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fasthttp.StatusUnsupportedMediaType, statusFor(errors.Wrap(core.ErrUnsupportedFormat, "x")))
	assert.Equal(t, fasthttp.StatusNotImplemented, statusFor(core.ErrNotImplemented))
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, statusFor(core.Truncated("PNG", 8)))
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, statusFor(core.Invalid("PNG", "bad")))
	assert.Equal(t, fasthttp.StatusInternalServerError, statusFor(errors.New("boom")))
}
