package misc

import "testing"

func TestGenerateRandomState(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		state, err := GenerateRandomState()
		if err != nil {
			t.Fatalf("GenerateRandomState() error = %v", err)
		}
		if len(state) != 32 {
			t.Fatalf("state length = %d, want 32 hex characters", len(state))
		}
		if seen[state] {
			t.Fatalf("duplicate state %q", state)
		}
		seen[state] = true
	}
}

func TestParseOAuthCallback(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *OAuthCallback
		wantErr bool
	}{
		{
			name:  "full URL",
			input: "http://localhost:8739/callback?code=abc&state=xyz",
			want:  &OAuthCallback{Code: "abc", State: "xyz"},
		},
		{
			name:  "bare query string",
			input: "code=abc&state=xyz",
			want:  &OAuthCallback{Code: "abc", State: "xyz"},
		},
		{
			name:  "leading question mark",
			input: "?code=abc",
			want:  &OAuthCallback{Code: "abc"},
		},
		{
			name:  "missing scheme",
			input: "localhost:8739/callback?code=abc",
			want:  &OAuthCallback{Code: "abc"},
		},
		{
			name:  "error response",
			input: "http://localhost:8739/callback?error=access_denied&error_description=nope",
			want:  &OAuthCallback{Error: "access_denied", ErrorDescription: "nope"},
		},
		{
			name:  "empty input",
			input: "   ",
			want:  nil,
		},
		{
			name:    "no code and no error",
			input:   "http://localhost:8739/callback?state=xyz",
			wantErr: true,
		},
		{
			name:    "unparseable input",
			input:   "garbage",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOAuthCallback(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOAuthCallback(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("result = %+v, want nil", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
		})
	}
}
