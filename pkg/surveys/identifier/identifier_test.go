package identifier

import "testing"

func TestNewID(t *testing.T) {
	first := NewID()
	second := NewID()
	if first == second {
		t.Error("generated ids should be unique")
	}
	if !IsValid(first) {
		t.Errorf("generated id should be valid: %s", first)
	}
	if IsDraft(first) {
		t.Errorf("generated id should not be a draft: %s", first)
	}
}

func TestIsDraft(t *testing.T) {
	t.Run("draft prefix", func(t *testing.T) {
		if !IsDraft("draft_abc") {
			t.Error("should recognize draft id")
		}
	})
	t.Run("plain id", func(t *testing.T) {
		if IsDraft(NewID()) {
			t.Error("native id is not a draft")
		}
	})
	t.Run("empty", func(t *testing.T) {
		if IsDraft("") {
			t.Error("empty string is not a draft")
		}
	})
}

func TestIsValid(t *testing.T) {
	if IsValid("not-an-id") {
		t.Error("should reject malformed id")
	}
	if IsValid("draft_abc") {
		t.Error("draft ids are not valid native ids")
	}
	if IsValid("") {
		t.Error("empty id is not valid")
	}
}

func TestEnsurePersisted(t *testing.T) {
	t.Run("draft id is replaced", func(t *testing.T) {
		id, replaced := EnsurePersisted("draft_abc")
		if !replaced {
			t.Error("draft id should be replaced")
		}
		if !IsValid(id) {
			t.Errorf("replacement should be a valid id: %s", id)
		}
	})

	t.Run("empty id is replaced", func(t *testing.T) {
		id, replaced := EnsurePersisted("")
		if !replaced || !IsValid(id) {
			t.Errorf("empty id should yield a fresh valid id, got %s", id)
		}
	})

	t.Run("persisted id passes through", func(t *testing.T) {
		original := NewID()
		id, replaced := EnsurePersisted(original)
		if replaced || id != original {
			t.Errorf("persisted id should pass through unchanged, got %s", id)
		}
	})
}
