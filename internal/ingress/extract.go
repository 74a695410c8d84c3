package ingress

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/safqa-app/safqagate/internal/model"
)

// ExtractConfig bounds what the gate captures from a request.
type ExtractConfig struct {
	// MaxBodyBytes caps how much body is buffered for capture. Larger
	// bodies are passed through uncaptured.
	MaxBodyBytes int64
	// CaptureHeaders is the allow-list of headers recorded for the log.
	CaptureHeaders []string
}

// DefaultExtractConfig captures up to 1 MiB of body and the headers an
// ingress log usually needs.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		MaxBodyBytes: 1 << 20,
		CaptureHeaders: []string{
			"User-Agent",
			"Content-Type",
			"Accept-Language",
			"Referer",
			"Origin",
			"X-Forwarded-For",
		},
	}
}

// extractPayload captures query params, body fields, allow-listed
// headers and upload metadata. It never fails: anything unparseable
// just yields empty maps. Buffered bodies are put back on the request
// so downstream readers see the original bytes.
func extractPayload(r *http.Request, cfg ExtractConfig) RawPayload {
	p := RawPayload{
		Query:   map[string]any{},
		Body:    map[string]any{},
		Headers: map[string]string{},
	}

	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			p.Query[key] = values[0]
		}
	}

	for _, name := range cfg.CaptureHeaders {
		if v := r.Header.Get(name); v != "" {
			p.Headers[name] = v
		}
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		if body, ok := bufferBody(r, cfg.MaxBodyBytes); ok {
			parseJSONObject(body, p.Body)
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if body, ok := bufferBody(r, cfg.MaxBodyBytes); ok {
			if form, err := url.ParseQuery(string(body)); err == nil {
				for key, values := range form {
					if len(values) > 0 {
						p.Body[key] = values[0]
					}
				}
			}
		}
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(cfg.MaxBodyBytes); err == nil && r.MultipartForm != nil {
			for key, values := range r.MultipartForm.Value {
				if len(values) > 0 {
					p.Body[key] = values[0]
				}
			}
			p.Files = fileMetadata(r.MultipartForm.File)
		}
	}

	return p
}

// bufferBody reads up to max bytes and restores the body. Oversized or
// unreadable bodies are skipped for capture but stay fully readable
// downstream.
func bufferBody(r *http.Request, max int64) ([]byte, bool) {
	if r.Body == nil || r.ContentLength > max {
		return nil, false
	}
	orig := r.Body
	body, err := io.ReadAll(io.LimitReader(orig, max+1))
	if err != nil || int64(len(body)) > max {
		r.Body = replayBody{io.MultiReader(bytes.NewReader(body), orig), orig}
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, true
}

// replayBody rejoins an already-buffered prefix with the unread rest of
// the original body.
type replayBody struct {
	io.Reader
	io.Closer
}

func fileMetadata(files map[string][]*multipart.FileHeader) []model.FileMeta {
	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []model.FileMeta
	for _, field := range fields {
		for _, fh := range files[field] {
			out = append(out, model.FileMeta{
				Field:       field,
				Name:        fh.Filename,
				Size:        fh.Size,
				ContentType: fh.Header.Get("Content-Type"),
			})
		}
	}
	return out
}

// parseJSONObject walks a JSON object into a field map. Non-object
// payloads and malformed JSON contribute nothing.
func parseJSONObject(data []byte, into map[string]any) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil || v.Type() != fastjson.TypeObject {
		return
	}
	obj, err := v.Object()
	if err != nil {
		return
	}
	obj.Visit(func(key []byte, value *fastjson.Value) {
		into[string(key)] = jsonValue(value)
	})
}

func jsonValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeArray:
		arr := v.GetArray()
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = jsonValue(item)
		}
		return out
	case fastjson.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return nil
		}
		out := map[string]any{}
		obj.Visit(func(key []byte, value *fastjson.Value) {
			out[string(key)] = jsonValue(value)
		})
		return out
	default:
		return nil
	}
}
