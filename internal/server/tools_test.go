package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()
	want := []string{
		"image_open", "class_add", "class_select", "class_list",
		"brush_set", "paint_stroke", "paint_commit", "paint_discard",
		"erase_stroke", "erase_commit", "erase_discard", "edit_status",
		"annotations_list", "annotation_add_polygon", "annotation_add_rectangle", "annotation_delete",
		"suggest_shapes", "suggest_segments", "suggest_text", "suggest_external",
		"suggestions_list", "suggestions_accept", "suggestions_reject",
		"overlay_render", "annotation_crop", "mask_export",
	}
	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if names[tool.Name] {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		names[tool.Name] = true
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("missing tool %s", name)
		}
	}
	if len(tools) != len(want) {
		t.Errorf("got %d tools, want %d", len(tools), len(want))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("missing description")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("schema type = %v, want object", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("schema has no properties map")
			}
			if req, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range req {
					if _, ok := props[r]; !ok {
						t.Errorf("required %q is not a property", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_JSON(t *testing.T) {
	data, err := json.Marshal(GetToolDefinitions())
	if err != nil {
		t.Fatalf("tool definitions do not marshal: %v", err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, d := range decoded {
		if _, ok := d["inputSchema"]; !ok {
			t.Errorf("%v: inputSchema key missing", d["name"])
		}
	}
}

func TestToolDefinitions_PointsSchema(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		switch tool.Name {
		case "paint_stroke", "erase_stroke", "annotation_add_polygon":
			props := tool.InputSchema["properties"].(map[string]interface{})
			points, ok := props["points"].(map[string]interface{})
			if !ok || points["type"] != "array" {
				t.Errorf("%s: points should be an array schema", tool.Name)
			}
		}
	}
}
