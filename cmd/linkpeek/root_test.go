package main

import (
	"strings"
	"testing"

	"github.com/use-agent/linkpeek/models"
)

func TestEncodeRecordsSingleObject(t *testing.T) {
	records := []models.Record{
		models.SuccessRecord("https://a.example", models.Extraction{Title: "A"}),
	}
	out, err := encodeRecords(records)
	if err != nil {
		t.Fatalf("encodeRecords: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "{") {
		t.Errorf("single record should print as one object, got %s", got)
	}
	if !strings.Contains(got, `"url": "https://a.example"`) {
		t.Errorf("output missing the record: %s", got)
	}
}

func TestEncodeRecordsBatchArray(t *testing.T) {
	records := []models.Record{
		models.SuccessRecord("https://a.example", models.Extraction{Title: "A"}),
		models.ErrorRecord("https://b.example", models.NewFetchError(404, "Not Found")),
	}
	out, err := encodeRecords(records)
	if err != nil {
		t.Fatalf("encodeRecords: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "[") {
		t.Errorf("batch should print as an array, got %s", got)
	}
	if !strings.Contains(got, `"url": "https://a.example"`) || !strings.Contains(got, `"url": "https://b.example"`) {
		t.Errorf("output missing batch records: %s", got)
	}
}

func TestExitErr(t *testing.T) {
	failure := models.ErrorRecord("https://a.example", models.NewFetchError(404, "Not Found"))
	success := models.SuccessRecord("https://a.example", models.Extraction{Title: "A"})

	tests := []struct {
		name    string
		records []models.Record
		wantErr bool
	}{
		{"lone failure exits non-zero", []models.Record{failure}, true},
		{"lone success exits clean", []models.Record{success}, false},
		{"batch failure stays inline", []models.Record{success, failure}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitErr(tt.records)
			if (err != nil) != tt.wantErr {
				t.Errorf("exitErr = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "404") {
				t.Errorf("error %q missing the record's message", err)
			}
		})
	}
}
