package utils

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	tests := []struct {
		name    string
		input   string
		want    payload
		wantErr bool
	}{
		{name: "valid", input: `{"name":"pump","value":2}`, want: payload{Name: "pump", Value: 2}},
		{name: "empty input", input: "", want: payload{}},
		{name: "whitespace only", input: "  \n", want: payload{}},
		{name: "truncated", input: `{"name":"pump",`, wantErr: true},
		{name: "unknown field", input: `{"name":"pump","other":1}`, wantErr: true},
		{name: "two objects", input: `{"name":"a"}{"name":"b"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FromJSON[payload]([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromJSON() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && got != tt.want {
				t.Errorf("FromJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromJSONStreamExtraData(t *testing.T) {
	t.Parallel()

	_, err := FromJSONStream[map[string]any](strings.NewReader(`{"a":1} {"b":2}`))

	var extra *ExtraDataAfterJSONError
	if !errors.As(err, &extra) {
		t.Fatalf("FromJSONStream() error = %v, want ExtraDataAfterJSONError", err)
	}
}

func TestToJSONDoesNotEscapeHTML(t *testing.T) {
	t.Parallel()

	got, err := ToJSON(map[string]string{"label": "<b>12:00</b>"})
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	if want := `{"label":"<b>12:00</b>"}`; string(got) != want {
		t.Errorf("ToJSON() = %s, want %s", got, want)
	}
}

func TestToJSONIndent(t *testing.T) {
	t.Parallel()

	got, err := ToJSONIndent(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("ToJSONIndent() error = %v", err)
	}

	if want := "{\n  \"a\": 1\n}"; string(got) != want {
		t.Errorf("ToJSONIndent() = %q, want %q", got, want)
	}
}

func TestSlogReplacer(t *testing.T) {
	t.Parallel()

	ts := SlogReplacer(nil, slog.Time("at", time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)))
	if ts.Value.String() != "2024-01-15 10:30:45" {
		t.Errorf("time attr = %v", ts.Value.String())
	}

	d := SlogReplacer(nil, slog.Duration("took", 1500*time.Millisecond))
	if d.Value.String() != "1.5s" {
		t.Errorf("duration attr = %v", d.Value.String())
	}

	i := SlogReplacer(nil, slog.Int("n", 3))
	if i.Value.Kind() != slog.KindInt64 {
		t.Errorf("int attr kind = %v", i.Value.Kind())
	}
}

func TestSlogWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSlogWriter(slog.New(slog.NewTextHandler(&buf, nil)))

	input := []byte("Applying: 20250101_readings.sql\n\n")

	n, err := w.Write(input)
	if err != nil || n != len(input) {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	if !strings.Contains(buf.String(), "20250101_readings.sql") {
		t.Errorf("log output missing line: %q", buf.String())
	}

	buf.Reset()

	if _, err := w.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}

	if buf.Len() != 0 {
		t.Errorf("blank line should not be logged, got %q", buf.String())
	}
}

func TestLogOnError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	LogOnError(l, func() error { return nil }, "close failed")

	if buf.Len() != 0 {
		t.Fatalf("unexpected log: %s", buf.String())
	}

	LogOnError(l, func() error { return errors.New("boom") }, "close failed")

	if !strings.Contains(buf.String(), "close failed") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestPtr(t *testing.T) {
	t.Parallel()

	p := Ptr(2.5)
	if *p != 2.5 {
		t.Errorf("Ptr() = %v", *p)
	}
}

func TestVersionStrings(t *testing.T) {
	t.Parallel()

	short := GetVersionShort()
	if !strings.HasPrefix(short, "v") || !strings.Contains(short, "(") {
		t.Errorf("GetVersionShort() = %q", short)
	}

	if strings.Contains(short, "built at") {
		t.Errorf("GetVersionShort() should not contain build time: %q", short)
	}

	if !strings.Contains(GetBuildVersion(), "built at") {
		t.Errorf("GetBuildVersion() = %q", GetBuildVersion())
	}

	info := GetBuildInfo()
	for _, key := range []string{"version", "commit", "build_time", "vcs_modified", "go_version"} {
		if _, ok := info[key]; !ok {
			t.Errorf("GetBuildInfo() missing %q", key)
		}
	}
}

func TestNewUUID(t *testing.T) {
	t.Parallel()

	a, b := NewUUID(), NewUUID()
	if len(a) != 36 || a == b {
		t.Errorf("NewUUID() = %q, %q", a, b)
	}
}
