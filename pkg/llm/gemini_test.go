package llm

import (
	"errors"
	"google.golang.org/genai"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		credentials bool
	}{
		{"unauthorized", genai.APIError{Code: http.StatusUnauthorized, Message: "unauthenticated"}, true},
		{"forbidden", genai.APIError{Code: http.StatusForbidden, Message: "permission denied"}, true},
		{"bad key", genai.APIError{Code: http.StatusBadRequest, Message: "API key not valid. Please pass a valid API key."}, true},
		{"bad request", genai.APIError{Code: http.StatusBadRequest, Message: "request payload size exceeds the limit"}, false},
		{"server error", genai.APIError{Code: http.StatusInternalServerError, Message: "internal"}, false},
		{"transport", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			if got := errors.Is(err, ErrInvalidCredentials); got != tt.credentials {
				t.Errorf("credential error = %v, want %v (%v)", got, tt.credentials, err)
			}
			_, _, wantAPI := apiError(tt.err)
			if _, _, gotAPI := apiError(err); gotAPI != wantAPI {
				t.Errorf("api error reachable = %v, want %v", gotAPI, wantAPI)
			}
		})
	}
}

func TestToGenaiParts(t *testing.T) {
	parts := toGenaiParts([]Part{Text("describe"), Inline([]byte{1, 2, 3}, "video/mp4")})
	if len(parts) != 2 {
		t.Fatalf("got %d parts", len(parts))
	}
	if parts[0].Text != "describe" {
		t.Errorf("text part = %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "video/mp4" || len(parts[1].InlineData.Data) != 3 {
		t.Errorf("inline part = %+v", parts[1].InlineData)
	}
}

func TestWithModel(t *testing.T) {
	base := &Gemini{model: DefaultModel}
	if got := base.WithModel("  "); got != base {
		t.Error("blank model should keep the client")
	}
	merge := base.WithModel(" gemini-2.0-flash ")
	if merge.Model() != "gemini-2.0-flash" || base.Model() != DefaultModel {
		t.Errorf("models = %q, %q", merge.Model(), base.Model())
	}
	if merge.client != base.client {
		t.Error("client should be shared")
	}
}
