package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/connectify/social-api/internal/core/domain"
)

func TestObjectID(t *testing.T) {
	want := primitive.NewObjectID()
	got, err := objectID(want.Hex(), domain.ErrPostNotFound)
	if err != nil || got != want {
		t.Fatalf("expected %s, got %s (%v)", want.Hex(), got.Hex(), err)
	}

	if _, err := objectID("zzz", domain.ErrPostNotFound); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for malformed id, got %v", err)
	}
}

func TestObjectIDs_SkipsMalformed(t *testing.T) {
	a := primitive.NewObjectID()
	got := objectIDs([]string{a.Hex(), "bad", ""})
	if len(got) != 1 || got[0] != a {
		t.Fatalf("expected only the valid id, got %v", got)
	}
}

func TestMessageDoc_ToDomain(t *testing.T) {
	doc := messageDoc{ID: primitive.NewObjectID(), SenderID: "a", ReceiverID: "b", Text: "hi"}
	m := doc.toDomain()
	if m.Status() != domain.MessageSent || m.DeliveredAt != nil {
		t.Fatalf("expected undelivered message, got %+v", m)
	}
	if m.ID != doc.ID.Hex() {
		t.Fatalf("expected hex id")
	}
}
