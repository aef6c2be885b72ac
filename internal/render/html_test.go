package render

import (
	"strings"
	"sync"
	"testing"
)

func TestHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		absent   []string
	}{
		{
			name:     "bold and quote",
			input:    "**Label:**\n\n> hello",
			contains: []string{"<strong>Label:</strong>", "<blockquote>", "hello"},
		},
		{
			name:     "raw html is not passed through",
			input:    "hi <script>alert(1)</script>",
			contains: []string{"hi"},
			absent:   []string{"<script>", "alert(1)</script>"},
		},
		{
			name:   "javascript links are dropped",
			input:  "[click](javascript:alert(1))",
			absent: []string{"javascript:"},
		},
		{
			name:     "hard wraps",
			input:    "line one\nline two",
			contains: []string{"<br"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTML(tt.input)
			if err != nil {
				t.Fatalf("HTML failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q: %s", want, got)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("output should not contain %q: %s", bad, got)
				}
			}
		})
	}
}

func TestRewriteHTML(t *testing.T) {
	got, err := RewriteHTML(templated, []string{"Privacy mode masked sensitive information before sending."})
	if err != nil {
		t.Fatalf("RewriteHTML failed: %v", err)
	}
	if !strings.Contains(got, "<strong>Rewritten Message:</strong>") {
		t.Errorf("missing label: %s", got)
	}
	if !strings.Contains(got, "<em>Privacy mode masked") {
		t.Errorf("missing notice: %s", got)
	}
}

func TestHTML_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := HTML("**x**"); err != nil {
				t.Errorf("HTML failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
