package backup

import (
	"errors"
	"testing"
)

func existsSet(paths ...string) existsFunc {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(path string) (bool, error) {
		return set[path], nil
	}
}

func TestResolveCollisionFreePathUnchanged(t *testing.T) {
	got, err := resolveCollision(existsSet(), "/dest/a.jpg")
	if err != nil {
		t.Fatalf("resolveCollision: %v", err)
	}
	if got != "/dest/a.jpg" {
		t.Errorf("got %q, want unchanged path", got)
	}
}

func TestResolveCollisionAppendsSuffix(t *testing.T) {
	cases := []struct {
		name     string
		occupied []string
		want     string
	}{
		{"first suffix", []string{"/dest/a.jpg"}, "/dest/a_1.jpg"},
		{"second suffix", []string{"/dest/a.jpg", "/dest/a_1.jpg"}, "/dest/a_2.jpg"},
		{"no extension", []string{"/dest/DSC00519"}, "/dest/DSC00519_1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveCollision(existsSet(tc.occupied...), tc.occupied[0])
			if err != nil {
				t.Fatalf("resolveCollision: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCollisionExhausted(t *testing.T) {
	everything := func(path string) (bool, error) { return true, nil }

	_, err := resolveCollision(everything, "/dest/a.jpg")
	if err == nil {
		t.Fatal("expected an error once every suffix is taken")
	}
	if !errors.Is(err, errSuffixesExhausted) {
		t.Errorf("error = %v, want suffix exhaustion", err)
	}
}

func TestResolveCollisionPropagatesProbeError(t *testing.T) {
	probeErr := errors.New("device not ready")
	failing := func(path string) (bool, error) { return false, probeErr }

	_, err := resolveCollision(failing, "/dest/a.jpg")
	if !errors.Is(err, probeErr) {
		t.Errorf("error = %v, want wrapped probe error", err)
	}
}
