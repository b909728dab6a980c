// wire-schema 生成线上事件载荷的 JSON Schema，供非 Go 端校验
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"roomsync/proto"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchemas()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

// buildSchemas 事件名 → 载荷 schema
func buildSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	payloads := map[string]any{
		proto.TypeJoinRoom:             &proto.JoinRoom{},
		proto.TypeMove:                 &proto.Move{},
		proto.TypeUpdateProfile:        &proto.Profile{},
		proto.TypeInteract:             &proto.Interact{},
		proto.TypeJoinedRoom:           &proto.JoinedRoom{},
		proto.TypePlayerJoined:         &proto.PlayerData{},
		proto.TypePlayerMoved:          &proto.PlayerMoved{},
		proto.TypePlayerProfileUpdated: &proto.PlayerProfileUpdated{},
		proto.TypePlayerLeft:           &proto.PlayerLeft{},
		proto.TypePlayerInteracted:     &proto.PlayerInteracted{},
		proto.TypeError:                &proto.Error{},
	}
	out := make(map[string]*jsonschema.Schema, len(payloads))
	for typ, v := range payloads {
		out[typ] = reflector.Reflect(v)
	}
	return out
}

func writeSchema(outPath string, schemas map[string]*jsonschema.Schema) error {
	data, err := json.MarshalIndent(schemas, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
