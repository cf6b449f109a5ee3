package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
)

const (
	RequestIDHeader = "X-Request-Id"

	bodyLogLimit = 8 * 1024
	redacted     = "***redacted***"
	truncatedTag = "...truncated..."
)

// quietRoutes are served without body capture and logged at debug.
var quietRoutes = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// sensitiveKeys are matched case-insensitively anywhere in a JSON body.
// GraphQL variables carry passwords under their argument names and the
// login payload returns the token as "value".
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"oldpassword":   {},
	"newpassword":   {},
	"authorization": {},
	"token":         {},
	"access_token":  {},
	"value":         {},
	"secret":        {},
	"client_secret": {},
}

// inlineCredential matches string literals passed to credential arguments
// written directly into a GraphQL document, e.g. login(password: "...").
var inlineCredential = regexp.MustCompile(`(?i)\b((?:old|new)?password|secret|token)(\s*:\s*)("""[\s\S]*?"""|"(?:[^"\\]|\\.)*")`)

func scrubQuery(q string) string {
	return inlineCredential.ReplaceAllString(q, `$1$2"`+redacted+`"`)
}

// cappedRecorder tees up to bodyLogLimit bytes of the response.
type cappedRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *cappedRecorder) Write(b []byte) (int, error) {
	if room := bodyLogLimit - w.buf.Len(); room > 0 {
		if len(b) > room {
			w.buf.Write(b[:room])
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func (w *cappedRecorder) logged() string {
	return loggableBody(w.buf.Bytes(), w.buf.Len() >= bodyLogLimit)
}

// loggableBody never returns bytes that could not be redacted: a body that
// does not parse, including one cut at the capture limit, is summarised.
func loggableBody(raw []byte, truncated bool) string {
	if len(raw) == 0 {
		return ""
	}
	out, ok := redactJSON(raw)
	if !ok || truncated {
		msg := fmt.Sprintf("[%d bytes not logged]", len(raw))
		if truncated {
			msg += truncatedTag
		}
		return msg
	}
	return string(out)
}

func scrub(x any) any {
	switch v := x.(type) {
	case map[string]any:
		for k, val := range v {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				v[k] = redacted
				continue
			}
			if q, ok := val.(string); ok && strings.EqualFold(k, "query") {
				v[k] = scrubQuery(q)
				continue
			}
			v[k] = scrub(val)
		}
	case []any:
		for i := range v {
			v[i] = scrub(v[i])
		}
	}
	return x
}

// redactJSON reports false when raw is not a JSON document.
func redactJSON(raw []byte) ([]byte, bool) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	out, err := json.Marshal(scrub(doc))
	if err != nil {
		return nil, false
	}
	return out, true
}

// readCapped reads up to n bytes for logging. rest yields whatever was not
// consumed, so the full body can be replayed.
func readCapped(rc io.ReadCloser, n int) (body []byte, rest io.Reader, truncated bool) {
	var buf bytes.Buffer
	_, _ = io.CopyN(&buf, rc, int64(n+1))
	b := buf.Bytes()
	if len(b) > n {
		return b[:n], io.MultiReader(bytes.NewReader(b[n:]), rc), true
	}
	return b, rc, false
}

// operationName pulls the GraphQL operationName out of a captured request
// body, if there is one.
func operationName(body []byte) string {
	var req struct {
		OperationName string `json:"operationName"`
	}
	if json.Unmarshal(body, &req) != nil {
		return ""
	}
	return req.OperationName
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

// Logging logs one line per request and puts a request-scoped slog.Logger
// into both the gin context and the request context.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, reqID)
		}
		c.Header(RequestIDHeader, reqID)

		route := c.FullPath()
		l := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"path", route,
			"remote", c.ClientIP(),
		)
		logging.With(c, l)

		if quietRoutes[route] {
			c.Next()
			l.Debug("http_request", "status", c.Writer.Status(), "dur_ms", time.Since(start).Milliseconds())
			return
		}

		var attrs []any
		if isJSON(c.GetHeader("Content-Type")) && c.Request.Body != nil {
			body, rest, truncated := readCapped(c.Request.Body, bodyLogLimit)
			logged := loggableBody(body, truncated)
			if op := operationName(body); op != "" {
				attrs = append(attrs, "gql_op", op)
			}
			attrs = append(attrs, "req_body", logged)
			// handlers get the original bytes, not the redacted copy
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), rest))
		}

		rec := &cappedRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		status := c.Writer.Status()
		attrs = append(attrs,
			"status", status,
			"dur_ms", time.Since(start).Milliseconds(),
			"resp_bytes", c.Writer.Size(),
		)
		if isJSON(c.Writer.Header().Get("Content-Type")) {
			attrs = append(attrs, "resp_body", rec.logged())
		}
		if len(c.Params) > 0 {
			attrs = append(attrs, "params", c.Params)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", attrs...)
		default:
			l.Info("http_request", attrs...)
		}
	}
}
