package clipper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func serve(t *testing.T, status int, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestExtractCleansHTML(t *testing.T) {
	ts := serve(t, http.StatusOK, `
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Train Problem</h1>
				<div class="ads">Buy stuff!</div>
				<p>A train leaves at 60 km/h.
				   How far does it go in   3 hours?</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`)

	c := NewClipper(nil)
	text, err := c.Extract(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(text, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(text, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(text, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	want := "Train Problem A train leaves at 60 km/h. How far does it go in 3 hours?"
	if text != want {
		t.Errorf("Expected %q, got %q", want, text)
	}
}

func TestExtractPrefersArticle(t *testing.T) {
	ts := serve(t, http.StatusOK, `<html><body><div>Sidebar</div><article><p>Solve 2x+3=7.</p></article></body></html>`)

	text, err := NewClipper(nil).Extract(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "Solve 2x+3=7." {
		t.Errorf("Expected article text only, got %q", text)
	}
}

func TestExtractTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxTextLength+500)
	ts := serve(t, http.StatusOK, "<html><body><p>"+long+"</p></body></html>")

	text, err := NewClipper(nil).Extract(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if n := utf8.RuneCountInString(text); n != MaxTextLength {
		t.Errorf("Expected %d characters, got %d", MaxTextLength, n)
	}
}

func TestExtractErrors(t *testing.T) {
	t.Run("BadStatus", func(t *testing.T) {
		ts := serve(t, http.StatusNotFound, "missing")
		if _, err := NewClipper(nil).Extract(context.Background(), ts.URL); err == nil {
			t.Fatal("Expected an error for a 404 page")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		ts := serve(t, http.StatusOK, "<html><body><script>x()</script></body></html>")
		if _, err := NewClipper(nil).Extract(context.Background(), ts.URL); err != ErrNoText {
			t.Fatalf("Expected ErrNoText, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		ts := serve(t, http.StatusOK, "<html><body>ok</body></html>")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := NewClipper(nil).Extract(ctx, ts.URL); err == nil {
			t.Fatal("Expected an error for a cancelled context")
		}
	})
}
