package models

import "encoding/json"

// Extraction holds the title and preview image found by either tier.
// Empty string means "not found" and serializes as JSON null; absence
// is data, not an error.
type Extraction struct {
	Title        string
	PreviewImage string
}

// Empty reports whether neither field was found. The orchestrator
// escalates to the rendered tier only when this is true.
func (e Extraction) Empty() bool {
	return e.Title == "" && e.PreviewImage == ""
}

// Record is the per-URL output: either a success record with title and
// previewImage (each possibly null), or a failure record with an error
// message. The two shapes are mutually exclusive.
type Record struct {
	URL          string
	Title        string
	PreviewImage string
	Err          string
}

// SuccessRecord builds a success record from an extraction.
func SuccessRecord(url string, e Extraction) Record {
	return Record{URL: url, Title: e.Title, PreviewImage: e.PreviewImage}
}

// ErrorRecord builds a failure record.
func ErrorRecord(url string, err error) Record {
	return Record{URL: url, Err: err.Error()}
}

// Failed reports whether this is a failure record.
func (r Record) Failed() bool {
	return r.Err != ""
}

type successJSON struct {
	URL          string  `json:"url"`
	Title        *string `json:"title"`
	PreviewImage *string `json:"previewImage"`
}

type errorJSON struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// MarshalJSON renders exactly one of the two record shapes.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(errorJSON{URL: r.URL, Error: r.Err})
	}
	return json.Marshal(successJSON{
		URL:          r.URL,
		Title:        nullable(r.Title),
		PreviewImage: nullable(r.PreviewImage),
	})
}

// UnmarshalJSON accepts either record shape.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		URL          string  `json:"url"`
		Title        *string `json:"title"`
		PreviewImage *string `json:"previewImage"`
		Error        string  `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.URL = raw.URL
	r.Err = raw.Error
	r.Title = deref(raw.Title)
	r.PreviewImage = deref(raw.PreviewImage)
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
