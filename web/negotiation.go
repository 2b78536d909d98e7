package web

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"maps"
	"net/http"
	"slices"
)

const (
	MIMEApplicationXML = "application/xml"

	// Config key of the XML root tag, XML responses are off without it.
	XMLRootKey = "web.xmlRoot"

	xmlItem = "item"
)

// ContentNegotiation renders responses as XML for requests accepting only application/xml.
// JSON bodies are converted element by element under root tag xmlRoot,
// any other body becomes the text of the root tag.
// Empty xmlRoot returns handlers unchanged.
func ContentNegotiation(xmlRoot string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if xmlRoot == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != MIMEApplicationXML {
				next.ServeHTTP(w, r)
				return
			}

			buf := &bufferedResponseWriter{ResponseWriter: w}
			next.ServeHTTP(buf, r)

			body, err := toXML(xmlRoot, buf.body.Bytes())
			if err != nil {
				http.Error(w, fmt.Sprintf("cannot render xml: %v", err), http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", MIMEApplicationXML)
			w.Header().Del("Content-Length")
			w.WriteHeader(buf.statusCode())

			_, _ = w.Write(body)
		})
	}
}

// bufferedResponseWriter holds status and body until the handler returns.
type bufferedResponseWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *bufferedResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedResponseWriter) Write(p []byte) (int, error) {
	return w.body.Write(p)
}

func (w *bufferedResponseWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

func toXML(root string, body []byte) ([]byte, error) {
	var value any

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if err := dec.Decode(&value); err != nil || dec.More() {
		value = string(body)
	}

	var out bytes.Buffer
	out.WriteString(xml.Header)

	enc := xml.NewEncoder(&out)

	if items, ok := value.([]any); ok {
		value = map[string]any{xmlItem: items}
	}

	if err := encodeXML(enc, root, value); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// arrays repeat the element of their key, object keys are sorted
func encodeXML(enc *xml.Encoder, name string, value any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if err := encodeXML(enc, name, item); err != nil {
				return err
			}
		}

		return nil
	case map[string]any:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}

		for _, key := range slices.Sorted(maps.Keys(v)) {
			if err := encodeXML(enc, key, v[key]); err != nil {
				return err
			}
		}

		return enc.EncodeToken(start.End())
	case nil:
		if err := enc.EncodeToken(start); err != nil {
			return err
		}

		return enc.EncodeToken(start.End())
	default:
		return enc.EncodeElement(fmt.Sprint(v), start)
	}
}
