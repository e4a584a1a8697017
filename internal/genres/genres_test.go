package genres

import (
	"reflect"
	"testing"
)

func TestInfer(t *testing.T) {
	t.Run("keyword match", func(t *testing.T) {
		got := Infer("Summer House Anthem")

		found := false
		for _, g := range got {
			if g == "house" {
				found = true
			}
		}
		if !found {
			t.Errorf("Infer(\"Summer House Anthem\") = %v, should contain \"house\"", got)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		a := Infer("MIDNIGHT TECHNO")
		b := Infer("midnight techno")
		if !reflect.DeepEqual(a, b) {
			t.Errorf("case should not matter: %v vs %v", a, b)
		}
	})

	t.Run("compound keyword substring match", func(t *testing.T) {
		got := Infer("Late Night Drum and Bass Mix")

		found := false
		for _, g := range got {
			if g == "drum-and-bass" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected drum-and-bass tag, got %v", got)
		}
	})

	t.Run("multiple keywords dedupe", func(t *testing.T) {
		got := Infer("Techno House Rave")

		seen := make(map[string]int)
		for _, g := range got {
			seen[g]++
		}
		if seen["electronic"] != 1 {
			t.Errorf("electronic should appear exactly once, got %v", got)
		}
	})

	t.Run("fallback is deterministic", func(t *testing.T) {
		a := Infer("Xyzzy Quux")
		b := Infer("Xyzzy Quux")

		if !reflect.DeepEqual(a, b) {
			t.Errorf("fallback should be deterministic: %v vs %v", a, b)
		}
		if len(a) < 1 || len(a) > 3 {
			t.Errorf("fallback should return 1-3 genres, got %d", len(a))
		}
	})

	t.Run("fallback has no duplicates", func(t *testing.T) {
		titles := []string{"Aaa", "Bbb", "Ccc", "Ddd", "Eee", "Zzz Top Hat", "Untitled 47"}
		for _, title := range titles {
			got := Infer(title)
			seen := make(map[string]bool)
			for _, g := range got {
				if seen[g] {
					t.Errorf("Infer(%q) returned duplicate genre %q: %v", title, g, got)
				}
				seen[g] = true
			}
		}
	})

	t.Run("empty title still yields genres", func(t *testing.T) {
		got := Infer("")
		if len(got) == 0 {
			t.Error("empty title should still yield a fallback sample")
		}
	})

	t.Run("pure function", func(t *testing.T) {
		first := Infer("Summer House Anthem")
		for i := 0; i < 10; i++ {
			if !reflect.DeepEqual(Infer("Summer House Anthem"), first) {
				t.Fatal("repeated calls should agree")
			}
		}
	})
}
