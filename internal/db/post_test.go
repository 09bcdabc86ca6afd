package db

import (
	"reflect"
	"testing"
)

func TestPostMediaURLsFollowsPosition(t *testing.T) {
	post := Post{Media: []PostMedia{
		{URL: "/static/uploads/b.png", Position: 1},
		{URL: "", Position: 0},
		{URL: "/static/uploads/a.png", Position: 0},
	}}

	got := post.MediaURLs()
	want := []string{"/static/uploads/a.png", "/static/uploads/b.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if post.CoverURL() != "/static/uploads/a.png" {
		t.Fatalf("unexpected cover url %q", post.CoverURL())
	}
}

func TestPostTagNamesSkipsBlank(t *testing.T) {
	tests := []struct {
		name string
		tags []Tag
		want []string
	}{
		{name: "empty", tags: nil, want: []string{}},
		{name: "blank entries", tags: []Tag{{Name: " "}, {Name: "Art"}}, want: []string{"Art"}},
		{name: "trimmed", tags: []Tag{{Name: " Learn "}}, want: []string{"Learn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Post{Tags: tt.tags}.TagNames()
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
