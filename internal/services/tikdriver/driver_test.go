package tikdriver

import (
	"context"
	"testing"
	"time"

	"clippub/internal/credentials"
	"clippub/internal/logging"
)

func TestPublishRejectsIncompleteRequests(t *testing.T) {
	d := New(Options{UploadURL: "https://example.invalid/upload"}, logging.NewNop())

	if err := d.Publish(context.Background(), Request{ProfileDir: "/tmp/profile"}); err == nil {
		t.Fatal("publish without clip path succeeded")
	}
	if err := d.Publish(context.Background(), Request{ClipPath: "/tmp/clip.mp4"}); err == nil {
		t.Fatal("publish without profile dir succeeded")
	}
}

func TestCookieParams(t *testing.T) {
	expires := time.Unix(1900000000, 0)
	cookies := []credentials.Cookie{
		{Name: "sessionid", Value: "abc", Domain: ".tiktok.com", Path: "/", Secure: true, Expires: expires},
		{Name: "tt_csrf", Value: "xyz", Domain: ".tiktok.com"},
	}

	params := cookieParams(cookies)
	if len(params) != 2 {
		t.Fatalf("len(params) = %d, want 2", len(params))
	}
	if params[0].Name != "sessionid" || params[0].Value != "abc" {
		t.Fatalf("params[0] = %+v", params[0])
	}
	if !params[0].Secure {
		t.Fatal("secure flag not carried over")
	}
	if float64(params[0].Expires) != float64(expires.Unix()) {
		t.Fatalf("expires = %v", params[0].Expires)
	}
	if float64(params[1].Expires) != 0 {
		t.Fatal("zero expiry should not be set")
	}
}
