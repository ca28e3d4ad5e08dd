package main

import (
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/ankit-chaubey/metascrub/core"
	"github.com/ankit-chaubey/metascrub/core/engine"
)

func cmdServe(fs *flag.FlagSet) runner {
	addr := fs.String("addr", "", "listen address (default from config, :8080)")
	maxBody := fs.Int("max-body-mb", 0, "request body limit in MiB (default from config, 32)")

	return func(a *app, args []string) error {
		if *addr != "" {
			a.cfg.Serve.Addr = *addr
		}
		if *maxBody > 0 {
			a.cfg.Serve.MaxBodyMB = *maxBody
		}
		srv := &fasthttp.Server{
			Name:               "surgery",
			Handler:            newAPI(a.cleaner, a.log).handle,
			MaxRequestBodySize: a.cfg.Serve.MaxBodyMB << 20,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       30 * time.Second,
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			a.log.Info().Msg("shutting down")
			_ = srv.Shutdown()
		}()

		a.log.Info().Str("addr", a.cfg.Serve.Addr).Msg("listening")
		return srv.ListenAndServe(a.cfg.Serve.Addr)
	}
}

// api serves the engine over HTTP:
//
//	POST /clean?format=<hint>   cleaned bytes
//	POST /extract               EXIF map, GPS and risk as JSON
//	POST /inspect?name=<file>   full report as JSON
//	GET  /formats               capability table
//	GET  /healthz
type api struct {
	cleaner *engine.Cleaner
	log     zerolog.Logger
}

func newAPI(c *engine.Cleaner, log zerolog.Logger) *api {
	return &api{cleaner: c, log: log}
}

func (s *api) handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())

	switch {
	case path == "/healthz" && ctx.IsGet():
		ctx.SetContentType("text/plain")
		ctx.SetBodyString("ok")
	case path == "/formats" && ctx.IsGet():
		s.writeJSON(ctx, fasthttp.StatusOK, engine.Capabilities())
	case path == "/clean" && ctx.IsPost():
		s.clean(ctx)
	case path == "/extract" && ctx.IsPost():
		s.extract(ctx)
	case path == "/inspect" && ctx.IsPost():
		s.inspect(ctx)
	case path == "/healthz" || path == "/formats" || path == "/clean" || path == "/extract" || path == "/inspect":
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, errors.New("method not allowed"))
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, errors.New("not found"))
	}

	s.log.Debug().
		Str("method", string(ctx.Method())).
		Str("path", path).
		Int("status", ctx.Response.StatusCode()).
		Int("bytes_in", len(ctx.PostBody())).
		Dur("took", time.Since(start)).
		Msg("request")
}

func (s *api) clean(ctx *fasthttp.RequestCtx) {
	hint := string(ctx.QueryArgs().Peek("format"))
	if hint == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, errors.New("missing format parameter"))
		return
	}
	res, err := s.cleaner.Clean(ctx.PostBody(), hint)
	if err != nil {
		s.writeError(ctx, statusFor(err), err)
		return
	}

	ctx.SetContentType(core.MIMEFor(res.Format))
	ctx.Response.Header.Set("X-Dropped-Units", strconv.Itoa(len(res.Dropped)))
	ctx.Response.Header.Set("X-Clean-Complete", strconv.FormatBool(res.Complete))
	if res.Note != "" {
		ctx.Response.Header.Set("X-Clean-Note", res.Note)
	}
	ctx.SetBody(res.Data)
}

func (s *api) extract(ctx *fasthttp.RequestCtx) {
	meta, gps := engine.Extract(ctx.PostBody())
	s.writeJSON(ctx, fasthttp.StatusOK, struct {
		Metadata core.MetadataMap   `json:"metadata"`
		GPS      *core.GPSCoordinate `json:"gps"`
		Risk     core.PrivacyRisk    `json:"risk"`
	}{meta, gps, core.AssessRisk(meta, gps, false)})
}

func (s *api) inspect(ctx *fasthttp.RequestCtx) {
	name := string(ctx.QueryArgs().Peek("name"))
	mime := string(ctx.Request.Header.ContentType())
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "application/octet-stream" {
		mime = ""
	}

	r, err := s.cleaner.Inspect(name, strings.TrimSpace(mime), ctx.PostBody())
	if err != nil {
		s.writeError(ctx, statusFor(err), err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, r)
}

func (s *api) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

func (s *api) writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	if status >= fasthttp.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(ctx, status, map[string]string{"message": err.Error()})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnsupportedFormat):
		return fasthttp.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrNotImplemented):
		return fasthttp.StatusNotImplemented
	case errors.Is(err, core.ErrInvalidSignature), errors.Is(err, core.ErrTruncated):
		return fasthttp.StatusUnprocessableEntity
	default:
		return fasthttp.StatusInternalServerError
	}
}
