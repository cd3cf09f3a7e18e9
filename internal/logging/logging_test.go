package logging

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestHideSecret(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "***"},
		{"ab", "***"},
		{"abcd", "a...d"},
		{"abcdef", "ab...ef"},
		{"abcdefghijkl", "abcd...ijkl"},
	}
	for _, tc := range cases {
		if got := HideSecret(tc.in); got != tc.want {
			t.Fatalf("HideSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskSensitiveQuery(t *testing.T) {
	raw := "code=AUTHCODE123456&state=STATEVALUE99&foo=bar"
	got := MaskSensitiveQuery(raw)
	if strings.Contains(got, "AUTHCODE123456") || strings.Contains(got, "STATEVALUE99") {
		t.Fatalf("sensitive values leaked: %s", got)
	}
	if !strings.Contains(got, "foo=bar") {
		t.Fatalf("non-sensitive parameter was altered: %s", got)
	}
	if got := MaskSensitiveQuery("foo=bar&x=1"); got != "foo=bar&x=1" {
		t.Fatalf("unchanged query rewritten: %s", got)
	}
	if got := MaskSensitiveQuery(""); got != "" {
		t.Fatalf("empty query = %q", got)
	}
}

func TestLogFormatter(t *testing.T) {
	entry := &log.Entry{
		Logger:  log.New(),
		Time:    time.Date(2025, 12, 23, 20, 14, 4, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "callback rejected\n",
		Data:    log.Fields{sessionField: "a1b2c3d4", "status": 404, "ignored": "x"},
	}
	out, err := (&LogFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "[2025-12-23 20:14:04] [warn ] callback rejected session=a1b2c3d4 status=404\n"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestLogFormatterQuotesFieldValues(t *testing.T) {
	entry := &log.Entry{
		Logger:  log.New(),
		Time:    time.Date(2025, 12, 23, 20, 14, 4, 0, time.UTC),
		Level:   log.ErrorLevel,
		Message: "token request failed",
		Data:    log.Fields{"error": "connection refused", "path": ""},
	}
	out, err := (&LogFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "[2025-12-23 20:14:04] [error] token request failed path=\"\" error=\"connection refused\"\n"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestMaskSensitiveQueryShortValues(t *testing.T) {
	cases := map[string]string{
		"code=ab&state=x":    "code=%2A%2A%2A&state=%2A%2A%2A",
		"state&code=":        "state&code=",
		"foo=1&&code=abcdef": "foo=1&&code=ab...ef",
		"CODE=12345678901":   "CODE=1234...8901",
	}
	for raw, want := range cases {
		if got := MaskSensitiveQuery(raw); got != want {
			t.Fatalf("MaskSensitiveQuery(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestGinLogrusLoggerMasksShortCallbackValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hook := test.NewGlobal()
	defer hook.Reset()
	previous := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(previous)

	engine := gin.New()
	engine.Use(GinLogrusLogger())
	engine.GET("/callback", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=Q7&state=Z9", nil))

	for _, entry := range hook.AllEntries() {
		if strings.Contains(entry.Message, "code=Q7") || strings.Contains(entry.Message, "state=Z9") {
			t.Fatalf("short callback values logged unmasked: %s", entry.Message)
		}
	}
}

func TestSessionHookStampsEntries(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.AddHook(&sessionHook{id: "deadbeef"})
	logger.Info("hello")

	last := hook.LastEntry()
	if last == nil {
		t.Fatalf("expected an entry")
	}
	if got := last.Data[sessionField]; got != "deadbeef" {
		t.Fatalf("session = %v", got)
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("unexpected lengths %q %q", a, b)
	}
	if a == b {
		t.Fatalf("session IDs should differ")
	}
}

func TestGinLogrusLoggerMasksCallbackQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hook := test.NewGlobal()
	defer hook.Reset()
	previous := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(previous)

	engine := gin.New()
	engine.Use(GinLogrusLogger())
	engine.GET("/callback", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/callback?code=SECRETCODE1234&state=SECRETSTATE5678", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)

	var found bool
	for _, entry := range hook.AllEntries() {
		if !strings.Contains(entry.Message, "/callback") {
			continue
		}
		found = true
		if strings.Contains(entry.Message, "SECRETCODE1234") || strings.Contains(entry.Message, "SECRETSTATE5678") {
			t.Fatalf("callback secrets logged: %s", entry.Message)
		}
	}
	if !found {
		t.Fatalf("expected a request log entry")
	}
}
