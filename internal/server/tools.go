package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var pointsSchema = map[string]interface{}{
	"type":        "array",
	"description": "Stroke points in image pixels, in drawing order",
	"items": object(map[string]interface{}{
		"x": prop("integer", "X coordinate (0-based)"),
		"y": prop("integer", "Y coordinate (0-based)"),
	}, "x", "y"),
}

var idsSchema = map[string]interface{}{
	"type":        "array",
	"description": "Suggestion IDs. Omit to apply to every pending suggestion.",
	"items":       map[string]interface{}{"type": "string"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image and classes
		{
			Name:        "image_open",
			Description: "Open an image (or one frame of an animated GIF) for annotation and make it the active slice. Previously saved annotations for the slice are restored. Fails if the current slice has uncommitted strokes unless resolve is given.",
			InputSchema: object(map[string]interface{}{
				"path":    prop("string", "Absolute path to the image file"),
				"slice":   prop("integer", "Frame index for multi-frame images. Default 0"),
				"resolve": prop("string", "What to do with uncommitted strokes on the current slice: commit or discard"),
			}, "path"),
		},
		{
			Name:        "class_add",
			Description: "Register an annotation class. Returns its category id and display colour. Adding an existing class is a no-op.",
			InputSchema: object(map[string]interface{}{
				"name": prop("string", "Class name, e.g. cell or truck"),
			}, "name"),
		},
		{
			Name:        "class_select",
			Description: "Select the class used by paint_commit. An empty name clears the selection, after which paint commits are dropped.",
			InputSchema: object(map[string]interface{}{
				"name": prop("string", "Registered class name, or empty to clear"),
			}, "name"),
		},
		{
			Name:        "class_list",
			Description: "List registered classes with their category ids and colours, plus the active class.",
			InputSchema: object(map[string]interface{}{}),
		},

		// Brush and eraser
		{
			Name:        "brush_set",
			Description: "Set the default paint and eraser radii in pixels.",
			InputSchema: object(map[string]interface{}{
				"paint_radius":  prop("integer", "Brush radius, at least 1"),
				"eraser_radius": prop("integer", "Eraser radius, at least 1"),
			}),
		},
		{
			Name:        "paint_stroke",
			Description: "Add a brush stroke to the pending paint buffer. Nothing is stored until paint_commit.",
			InputSchema: object(map[string]interface{}{
				"points": pointsSchema,
				"radius": prop("integer", "Brush radius for this stroke. Default: current paint radius"),
			}, "points"),
		},
		{
			Name:        "paint_commit",
			Description: "Turn the pending paint buffer into polygon annotations of the active class. Each connected region becomes one annotation; specks at or below the area threshold are dropped.",
			InputSchema: object(map[string]interface{}{}),
		},
		{
			Name:        "paint_discard",
			Description: "Drop the pending paint buffer without storing anything.",
			InputSchema: object(map[string]interface{}{}),
		},
		{
			Name:        "erase_stroke",
			Description: "Add an eraser stroke to the pending eraser buffer. Nothing changes until erase_commit.",
			InputSchema: object(map[string]interface{}{
				"points": pointsSchema,
				"radius": prop("integer", "Eraser radius for this stroke. Default: current eraser radius"),
			}, "points"),
		},
		{
			Name:        "erase_commit",
			Description: "Subtract the pending eraser buffer from every polygon annotation. Fully erased annotations are removed; annotations cut in pieces are split and the pieces numbered. Rectangles are not affected.",
			InputSchema: object(map[string]interface{}{}),
		},
		{
			Name:        "erase_discard",
			Description: "Drop the pending eraser buffer without changing anything.",
			InputSchema: object(map[string]interface{}{}),
		},
		{
			Name:        "edit_status",
			Description: "Report the active slice, active class, radii, pending stroke pixels, pending suggestions, and annotation count.",
			InputSchema: object(map[string]interface{}{}),
		},

		// Annotations
		{
			Name:        "annotations_list",
			Description: "List committed annotations of the active slice grouped by class. Polygons are flat [x1,y1,x2,y2,...] lists.",
			InputSchema: object(map[string]interface{}{
				"class": prop("string", "Only list this class"),
			}),
		},
		{
			Name:        "annotation_add_polygon",
			Description: "Add a polygon annotation directly from vertex coordinates.",
			InputSchema: object(map[string]interface{}{
				"class":  prop("string", "Registered class name"),
				"points": pointsSchema,
			}, "class", "points"),
		},
		{
			Name:        "annotation_add_rectangle",
			Description: "Add a bounding-box annotation. Boxes are never changed by the eraser.",
			InputSchema: object(map[string]interface{}{
				"class":  prop("string", "Registered class name"),
				"x":      prop("integer", "Left edge (0-based)"),
				"y":      prop("integer", "Top edge (0-based)"),
				"width":  prop("integer", "Width in pixels"),
				"height": prop("integer", "Height in pixels"),
			}, "class", "x", "y", "width", "height"),
		},
		{
			Name:        "annotation_delete",
			Description: "Delete one annotation by ID.",
			InputSchema: object(map[string]interface{}{
				"id": prop("string", "Annotation ID"),
			}, "id"),
		},

		// Suggestions
		{
			Name:        "suggest_shapes",
			Description: "Detect rectangles or circles in the active image and queue them as suggestions for review.",
			InputSchema: object(map[string]interface{}{
				"kind":       prop("string", "rectangles (default) or circles"),
				"class":      prop("string", "Class name for the suggestions"),
				"min_area":   prop("integer", "Rectangles: minimum area in square pixels. Default 100"),
				"tolerance":  prop("number", "Rectangles: minimum rectangularity 0-1. Default 0.9"),
				"min_radius": prop("integer", "Circles: minimum radius. Default 5"),
				"max_radius": prop("integer", "Circles: maximum radius. Default 50"),
			}, "class"),
		},
		{
			Name:        "suggest_segments",
			Description: "Threshold the active image and queue one polygon suggestion per connected region.",
			InputSchema: object(map[string]interface{}{
				"class":    prop("string", "Class name for the suggestions"),
				"level":    prop("integer", "Luminance cut 0-255; pixels at or above are foreground. Default 128"),
				"invert":   prop("boolean", "Treat dark pixels as foreground"),
				"min_area": prop("number", "Minimum region area. Default 10"),
			}, "class"),
		},
		{
			Name:        "suggest_text",
			Description: "Run OCR on the active image and queue one box suggestion per recognized word. Requires a build with Tesseract.",
			InputSchema: object(map[string]interface{}{
				"class":          prop("string", "Class name for the suggestions. Default text"),
				"language":       prop("string", "Tesseract language code. Default eng"),
				"min_confidence": prop("number", "Minimum word confidence 0-1"),
				"region": object(map[string]interface{}{
					"x":      prop("integer", "Left edge"),
					"y":      prop("integer", "Top edge"),
					"width":  prop("integer", "Width"),
					"height": prop("integer", "Height"),
				}),
			}),
		},
		{
			Name:        "suggest_external",
			Description: "Queue suggestions produced elsewhere, e.g. by a segmentation model. Each item has category_name and either segmentation (flat polygon) or bbox [x,y,w,h], plus optional score and source.",
			InputSchema: object(map[string]interface{}{
				"suggestions": map[string]interface{}{
					"type":        "array",
					"description": "Suggestion objects",
					"items":       map[string]interface{}{"type": "object"},
				},
			}, "suggestions"),
		},
		{
			Name:        "suggestions_list",
			Description: "List pending suggestions of the active slice.",
			InputSchema: object(map[string]interface{}{}),
		},
		{
			Name:        "suggestions_accept",
			Description: "Store the given suggestions (or all) as annotations. Classes are registered on demand.",
			InputSchema: object(map[string]interface{}{
				"ids": idsSchema,
			}),
		},
		{
			Name:        "suggestions_reject",
			Description: "Drop the given suggestions (or all).",
			InputSchema: object(map[string]interface{}{
				"ids": idsSchema,
			}),
		},

		// Views
		{
			Name:        "overlay_render",
			Description: "Render the active image with all annotations and pending strokes drawn over it, as base64 PNG.",
			InputSchema: object(map[string]interface{}{
				"scale":        prop("number", "Scale factor. Default 1.0"),
				"show_numbers": prop("boolean", "Label split fragments with their number. Default true"),
				"fill_opacity": prop("number", "Fill opacity 0-1. Default from configuration"),
			}),
		},
		{
			Name:        "annotation_crop",
			Description: "Crop the active image around one annotation, as base64 PNG.",
			InputSchema: object(map[string]interface{}{
				"id":      prop("string", "Annotation ID"),
				"padding": prop("integer", "Pixels of context on every side. Default 10"),
				"scale":   prop("number", "Scale factor. Default 1.0"),
			}, "id"),
		},
		{
			Name:        "mask_export",
			Description: "Export a binary mask as grayscale PNG: the pending paint buffer, the pending eraser buffer, or one annotation.",
			InputSchema: object(map[string]interface{}{
				"which": prop("string", "paint, erase or annotation"),
				"id":    prop("string", "Annotation ID when which is annotation"),
			}, "which"),
		},
	}
}
