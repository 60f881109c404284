package upstream

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// Job status values reported by the generation API. Comparison is case-insensitive.
const (
	StatusCompleted = "completed"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// NormalizeStatus folds a reported status for comparison against the Status constants.
func NormalizeStatus(status string) string {
	return cases.Fold().String(strings.TrimSpace(status))
}

// IsTerminalSuccess reports whether a normalized status declares the job finished.
func IsTerminalSuccess(status string) bool {
	switch status {
	case StatusCompleted, StatusSucceeded:
		return true
	default:
		return false
	}
}

// IsTerminalFailure reports whether a normalized status declares the job failed or
// canceled.
func IsTerminalFailure(status string) bool {
	switch status {
	case StatusFailed, StatusCanceled, StatusCancelled, StatusError:
		return true
	default:
		return false
	}
}

// Response is one decoded reply from the generation API.
type Response struct {
	// Data is the nested "data" object, nil when absent or not an object.
	Data *JobData
	// Top is the reply itself read as job data, nil when the body is not an object.
	Top *JobData
	Raw json.RawMessage
}

// JobData is the job descriptor carried by a reply. Fields with an unexpected JSON
// type are left empty.
type JobData struct {
	Status  string
	Outputs []json.RawMessage
	URLs    JobURLs
	Error   json.RawMessage
	Raw     json.RawMessage
}

// JobURLs holds the retrieval links of a pending job.
type JobURLs struct {
	Get string
}

// NormalizedStatus returns the folded status, or "" for nil data.
func (d *JobData) NormalizedStatus() string {
	if d == nil {
		return ""
	}
	return NormalizeStatus(d.Status)
}

// HasOutputs reports whether at least one result descriptor is present.
func (d *JobData) HasOutputs() bool {
	return d != nil && len(d.Outputs) > 0
}

// FirstOutput returns the first result descriptor or nil.
func (d *JobData) FirstOutput() json.RawMessage {
	if !d.HasOutputs() {
		return nil
	}
	return d.Outputs[0]
}

// ErrorDetail returns the upstream error field, falling back to the whole object.
func (d *JobData) ErrorDetail() string {
	if d == nil {
		return ""
	}
	if len(d.Error) > 0 {
		var text string
		if err := json.Unmarshal(d.Error, &text); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if string(d.Error) != `""` && string(d.Error) != "false" {
			return string(d.Error)
		}
	}
	return string(d.Raw)
}

// JobData returns the nested data object, else the reply itself, else an empty
// descriptor.
func (r *Response) JobData() *JobData {
	switch {
	case r == nil:
		return &JobData{}
	case r.Data != nil:
		return r.Data
	case r.Top != nil:
		return r.Top
	default:
		return &JobData{Raw: r.Raw}
	}
}

// DecodeResponse interprets a body that is already known to be valid JSON.
func DecodeResponse(body []byte) *Response {
	resp := &Response{Raw: append(json.RawMessage(nil), body...)}
	top, ok := decodeObject(body)
	if !ok {
		return resp
	}
	resp.Top = parseJobData(resp.Raw, top)
	if raw, found := top["data"]; found {
		if fields, ok := decodeObject(raw); ok {
			resp.Data = parseJobData(raw, fields)
		}
	}
	return resp
}

func decodeObject(raw []byte) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func parseJobData(raw json.RawMessage, fields map[string]json.RawMessage) *JobData {
	data := &JobData{Raw: raw}
	if v, ok := fields["status"]; ok {
		var status string
		if err := json.Unmarshal(v, &status); err == nil {
			data.Status = status
		}
	}
	if v, ok := fields["outputs"]; ok {
		var outputs []json.RawMessage
		if err := json.Unmarshal(v, &outputs); err == nil {
			data.Outputs = outputs
		}
	}
	if v, ok := fields["urls"]; ok {
		var urls struct {
			Get string `json:"get"`
		}
		if err := json.Unmarshal(v, &urls); err == nil {
			data.URLs.Get = strings.TrimSpace(urls.Get)
		}
	}
	if v, ok := fields["error"]; ok && string(v) != "null" {
		data.Error = v
	}
	return data
}
