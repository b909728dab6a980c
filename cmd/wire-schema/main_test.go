package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"roomsync/proto"
)

func TestWriteSchemaCoversEveryEvent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "wire.schema.json")
	if err := writeSchema(out, buildSchemas()); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, typ := range []string{proto.TypeJoinRoom, proto.TypeMove, proto.TypeJoinedRoom, proto.TypePlayerMoved, proto.TypeError} {
		if _, ok := doc[typ]; !ok {
			t.Fatalf("schema for %s missing", typ)
		}
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be renamed away")
	}
}
