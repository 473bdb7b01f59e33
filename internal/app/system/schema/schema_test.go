package schema

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDefaultDeclaresLogCollections(t *testing.T) {
	s := Default()

	byName := map[string]Collection{}
	for _, c := range s.Collections {
		if _, dup := byName[c.Name]; dup {
			t.Errorf("collection %q declared twice", c.Name)
		}
		byName[c.Name] = c
	}

	for _, name := range []string{LogsRecords, LogsLogin} {
		if _, ok := byName[name]; !ok {
			t.Errorf("collection %q not declared", name)
		}
	}

	seen := map[string]bool{}
	for _, ix := range byName[LogsRecords].Indexes {
		if ix.Name == "" {
			t.Error("index without a name")
		}
		if seen[ix.Name] {
			t.Errorf("index %q declared twice", ix.Name)
		}
		seen[ix.Name] = true
		if len(ix.Keys) == 0 {
			t.Errorf("index %q has no keys", ix.Name)
		}
	}
	if !seen["idx_logs_timestamp"] {
		t.Error("timestamp index not declared")
	}
}

func TestIndexModel(t *testing.T) {
	m := Index{Name: "uniq_x", Keys: bson.D{{Key: "x", Value: 1}}, Unique: true, Sparse: true}.model()
	if m.Options == nil || m.Options.Name == nil || *m.Options.Name != "uniq_x" {
		t.Fatal("index name not set")
	}
	if m.Options.Unique == nil || !*m.Options.Unique {
		t.Error("unique not set")
	}
	if m.Options.Sparse == nil || !*m.Options.Sparse {
		t.Error("sparse not set")
	}

	plain := Index{Name: "idx_y", Keys: bson.D{{Key: "y", Value: -1}}}.model()
	if plain.Options.Unique != nil {
		t.Error("unique should be unset for a plain index")
	}
}

func TestKeySig(t *testing.T) {
	got := keySig(bson.D{{Key: "loggedInUser.userName", Value: 1}, {Key: "timestamp", Value: -1}})
	want := "loggedInUser.userName:1, timestamp:-1"
	if got != want {
		t.Errorf("keySig() = %q, want %q", got, want)
	}
}

func TestSameBoolPtr(t *testing.T) {
	tru, fls := true, false
	tests := []struct {
		a, b *bool
		want bool
	}{
		{nil, nil, true},
		{nil, &fls, true},
		{&tru, nil, false},
		{&tru, &tru, true},
	}
	for _, tt := range tests {
		if got := sameBoolPtr(tt.a, tt.b); got != tt.want {
			t.Errorf("sameBoolPtr(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestErrorClassifiers(t *testing.T) {
	nsExists := mongo.CommandError{Code: 48, Message: "Collection already exists. NS: stratalog.logs_records"}
	noCmd := mongo.CommandError{Code: 59, Message: "no such command: 'collMod'"}
	notImpl := mongo.CommandError{Code: 115, Message: "Feature not supported"}
	idxExists := mongo.CommandError{Code: 68, Message: "Index already exists"}
	conflict := mongo.CommandError{Code: 85, Message: "Index with name: idx_logs_timestamp already exists with different options"}
	other := errors.New("connection refused")

	if !isNamespaceExistsErr(nsExists) {
		t.Error("code 48 should be namespace exists")
	}
	if isNamespaceExistsErr(other) {
		t.Error("connection error is not namespace exists")
	}
	if !isNoSuchCommand(noCmd) {
		t.Error("code 59 should be no such command")
	}
	if !isNotImplemented(notImpl) {
		t.Error("code 115 should be not implemented")
	}
	if !isIndexExistsErr(idxExists) {
		t.Error("code 68 should be index exists")
	}
	if isIndexExistsErr(conflict) {
		t.Error("options conflict must not be treated as success")
	}
	if isIndexExistsErr(nil) || isNamespaceExistsErr(nil) {
		t.Error("nil is never a match")
	}
}
