package export

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Kopi Susu Gula Aren Café", want: "kopi-susu-gula-aren-cafe"},
		{in: "  --Nasi   Goreng!! ", want: "nasi-goreng"},
		{in: "Crème brûlée 2024", want: "creme-brulee-2024"},
		{in: "日本語", want: ""},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcde "
	}
	got := Slug(long)
	if len(got) > maxBaseNameLen || got[len(got)-1] == '-' {
		t.Fatalf("Slug produced %q", got)
	}
}

func TestEntryName(t *testing.T) {
	if got := EntryName("image", 0, "jpg"); got != "image-1.jpg" {
		t.Fatalf("EntryName = %q", got)
	}
	if got := EntryName("set", 9, "png"); got != "set-10.png" {
		t.Fatalf("EntryName = %q", got)
	}
}

func TestLinkName(t *testing.T) {
	idx := 1
	tests := []struct {
		url   string
		index *int
		want  string
	}{
		{url: "https://cdn/x/photo.PNG?token=abc", want: "image.png"},
		{url: "https://cdn/x/photo", want: "image.jpg"},
		{url: "https://cdn/x/photo.webp", index: &idx, want: "image-2.webp"},
	}
	for _, tc := range tests {
		if got := linkName("image", tc.index, tc.url); got != tc.want {
			t.Fatalf("linkName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
