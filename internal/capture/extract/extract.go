// Package extract pulls submission payloads out of inconsistent encodings.
//
// The judge site submits code in several body formats depending on the page
// and transport in use. Each known format is an explicit variant with its own
// extractor; variants are tried in a fixed order and the first match wins.
// Extraction is best effort: a missing field is not an error, and no parse
// failure ever aborts the underlying call.
package extract

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
)

// Payload holds the best-effort fields of a captured submission. Any field
// may be empty when the encoding did not carry it.
type Payload struct {
	Language  string
	Code      string
	ProblemID string
}

// EditorBuffer exposes the page's embedded code editor, used as a last-resort
// source for the submitted code.
type EditorBuffer interface {
	// CurrentCode returns the editor's current buffer, if an editor is present.
	CurrentCode() (string, bool)
}

// encoding is one known payload format: a cheap detector plus an extractor.
type encoding struct {
	name    string
	detect  func(contentType string, body []byte) bool
	extract func(contentType string, body []byte) Payload
}

// encodings in priority order; the first whose detector fires wins.
var encodings = []encoding{
	{name: "multipart", detect: detectMultipart, extract: extractMultipart},
	{name: "urlencoded", detect: detectURLEncoded, extract: extractURLEncoded},
	{name: "graphql", detect: detectGraphQL, extract: extractGraphQL},
	{name: "json", detect: detectJSON, extract: extractJSON},
}

// Submission extracts {language, code, problemId} from a submission call's
// body. If no encoding yields code, the editor buffer is consulted.
func Submission(contentType string, body []byte, editor EditorBuffer) (p Payload) {
	defer func() {
		if recover() != nil {
			// Keep whatever was found before the failure.
		}
		if p.Code == "" && editor != nil {
			if code, ok := editor.CurrentCode(); ok {
				p.Code = code
			}
		}
	}()

	for _, enc := range encodings {
		if enc.detect(contentType, body) {
			p = enc.extract(contentType, body)
			break
		}
	}
	return p
}

// --- multipart/form encoding ---

func detectMultipart(contentType string, body []byte) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func extractMultipart(contentType string, body []byte) Payload {
	var p Payload
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return p
	}
	boundary, ok := params["boundary"]
	if !ok {
		return p
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break // io.EOF or malformed tail; keep what we have
		}
		value, err := io.ReadAll(part)
		if err != nil {
			continue
		}
		switch part.FormName() {
		case "lang":
			p.Language = string(value)
		case "typed_code":
			p.Code = string(value)
		case "question_id":
			p.ProblemID = string(value)
		}
	}
	return p
}

// --- URL-encoded form body ---

func detectURLEncoded(contentType string, body []byte) bool {
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		// JSON code bodies routinely contain '=' and '&'.
		return false
	}
	return bytes.ContainsRune(body, '=') && bytes.ContainsRune(body, '&')
}

func extractURLEncoded(_ string, body []byte) Payload {
	var p Payload
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return p
	}
	p.Language = firstValue(values, "lang")
	p.Code = firstValue(values, "typed_code", "code")
	p.ProblemID = firstValue(values, "question_id", "questionId")
	return p
}

func firstValue(values url.Values, keys ...string) string {
	for _, key := range keys {
		if v := values.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// --- structured (JSON) bodies ---

func detectGraphQL(_ string, body []byte) bool {
	obj, ok := parseObject(body)
	if !ok {
		return false
	}
	_, hasQuery := obj["query"]
	_, hasOp := obj["operationName"]
	return hasQuery || hasOp
}

// extractGraphQL reads submission variables when the operation is a
// recognized code-submission operation; otherwise it falls back to the
// top-level field aliases.
func extractGraphQL(_ string, body []byte) Payload {
	obj, _ := parseObject(body)
	if isSubmitOperation(obj) {
		vars, ok := obj["variables"].(map[string]interface{})
		if !ok {
			return Payload{}
		}
		return Payload{
			Language:  stringField(vars, "lang", "languageSlug"),
			Code:      stringField(vars, "code", "sourceCode", "typedCode"),
			ProblemID: stringField(vars, "submissionId", "titleSlug"),
		}
	}
	return extractTopLevel(obj)
}

func isSubmitOperation(obj map[string]interface{}) bool {
	op, _ := obj["operationName"].(string)
	query, _ := obj["query"].(string)
	hay := strings.ToLower(op + " " + query)
	return strings.Contains(hay, "submit")
}

func detectJSON(_ string, body []byte) bool {
	_, ok := parseObject(body)
	return ok
}

func extractJSON(_ string, body []byte) Payload {
	obj, _ := parseObject(body)
	return extractTopLevel(obj)
}

func extractTopLevel(obj map[string]interface{}) Payload {
	return Payload{
		Language:  stringField(obj, "lang", "language"),
		Code:      stringField(obj, "typed_code", "submission_code", "code", "sourceCode"),
		ProblemID: stringField(obj, "question_id", "questionId", "titleSlug"),
	}
}

// --- response-side submission identifier ---

// nested containers that may hold a code-submission result, in priority order.
var resultContainers = []string{"data", "result", "submitCode", "submitSolution", "submission"}

// SubmissionID reads the site-issued submission identifier from a submit
// response body. Returns false when no identifier is present, which callers
// treat as a silent no-op rather than an error.
func SubmissionID(body []byte) (string, bool) {
	obj, ok := parseObject(body)
	if !ok {
		return "", false
	}
	if id := stringField(obj, "submission_id", "submissionId"); id != "" {
		return id, true
	}
	for _, key := range resultContainers {
		nested, ok := obj[key].(map[string]interface{})
		if !ok {
			continue
		}
		if id := stringField(nested, "id", "submissionId", "submission_id"); id != "" {
			return id, true
		}
		// One more level: query-style responses wrap the result object.
		for _, inner := range resultContainers {
			deep, ok := nested[inner].(map[string]interface{})
			if !ok {
				continue
			}
			if id := stringField(deep, "id", "submissionId"); id != "" {
				return id, true
			}
		}
	}
	if id := stringField(obj, "interpret_id"); id != "" {
		return id, true
	}
	return "", false
}

// --- helpers ---

func parseObject(body []byte) (map[string]interface{}, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// stringField returns the first alias present in obj, stringifying numeric
// values (the site is inconsistent about quoting ids).
func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case json.Number:
			return val.String()
		}
	}
	return ""
}
