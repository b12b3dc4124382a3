package discovery

import "testing"

func TestHandleFromURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantHandle   string
		wantPlatform string
		wantOK       bool
	}{
		{
			name:         "instagram profile",
			url:          "https://www.instagram.com/acme_coffee/",
			wantHandle:   "acme_coffee",
			wantPlatform: "instagram",
			wantOK:       true,
		},
		{
			name:         "instagram mixed case",
			url:          "https://instagram.com/AcmeCoffee?hl=en",
			wantHandle:   "acmecoffee",
			wantPlatform: "instagram",
			wantOK:       true,
		},
		{
			name:   "instagram post permalink",
			url:    "https://www.instagram.com/p/Cxyz123/",
			wantOK: false,
		},
		{
			name:   "instagram reel",
			url:    "https://www.instagram.com/reel/Cxyz123/",
			wantOK: false,
		},
		{
			name:         "tiktok profile",
			url:          "https://www.tiktok.com/@bean.supreme",
			wantHandle:   "bean.supreme",
			wantPlatform: "tiktok",
			wantOK:       true,
		},
		{
			name:         "youtube handle",
			url:          "https://www.youtube.com/@RoastRivals/videos",
			wantHandle:   "roastrivals",
			wantPlatform: "youtube",
			wantOK:       true,
		},
		{
			name:         "twitter profile",
			url:          "https://twitter.com/acmecoffee",
			wantHandle:   "acmecoffee",
			wantPlatform: "twitter",
			wantOK:       true,
		},
		{
			name:         "x dot com profile",
			url:          "https://x.com/acmecoffee/status/123",
			wantHandle:   "acmecoffee",
			wantPlatform: "twitter",
			wantOK:       true,
		},
		{
			name:   "twitter intent link",
			url:    "https://twitter.com/intent/tweet?text=hi",
			wantOK: false,
		},
		{
			name:   "unrelated site",
			url:    "https://example.com/blog/top-coffee-accounts",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, platform, ok := HandleFromURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}

			if !ok {
				return
			}

			if handle != tt.wantHandle {
				t.Errorf("handle = %q, want %q", handle, tt.wantHandle)
			}

			if platform != tt.wantPlatform {
				t.Errorf("platform = %q, want %q", platform, tt.wantPlatform)
			}
		})
	}
}
