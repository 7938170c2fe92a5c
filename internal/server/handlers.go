package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"slices"

	"go.uber.org/zap"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/imaging"
	"github.com/ironsheep/annotate-mcp/internal/session"
)

var (
	// ErrUnknownTool is returned for tool names not in GetToolDefinitions.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArgs marks tool arguments that are malformed or missing.
	ErrInvalidArgs = errors.New("invalid arguments")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_open", "paint_commit").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602. Other tool errors return -32000 with
// the error text in data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) (*MCPResponse, []MCPNotification) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error()), nil
	}

	result, notes, err := s.Call(ctx, params.Name, params.Arguments)
	if errors.Is(err, ErrInvalidArgs) {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error()), nil
	}
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error()), notes
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}, notes
}

// executeTool dispatches tool execution to the appropriate handler function.
// The caller holds s.mu.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image and classes
	case "image_open":
		return s.handleImageOpen(ctx, args)
	case "class_add":
		return s.handleClassAdd(args)
	case "class_select":
		return s.handleClassSelect(args)
	case "class_list":
		return s.handleClassList()

	// Brush and eraser
	case "brush_set":
		return s.handleBrushSet(args)
	case "paint_stroke":
		return s.handleStroke(args, false)
	case "erase_stroke":
		return s.handleStroke(args, true)
	case "paint_commit":
		return s.handlePaintCommit(ctx)
	case "erase_commit":
		return s.handleEraseCommit(ctx)
	case "paint_discard":
		return s.handleDiscard(false)
	case "erase_discard":
		return s.handleDiscard(true)
	case "edit_status":
		return s.handleEditStatus()

	// Annotations
	case "annotations_list":
		return s.handleAnnotationsList(args)
	case "annotation_add_polygon":
		return s.handleAddPolygon(ctx, args)
	case "annotation_add_rectangle":
		return s.handleAddRectangle(ctx, args)
	case "annotation_delete":
		return s.handleAnnotationDelete(ctx, args)

	// Suggestions
	case "suggest_shapes":
		return s.handleSuggestShapes(args)
	case "suggest_segments":
		return s.handleSuggestSegments(args)
	case "suggest_text":
		return s.handleSuggestText(args)
	case "suggest_external":
		return s.handleSuggestExternal(args)
	case "suggestions_list":
		return s.handleSuggestionsList()
	case "suggestions_accept":
		return s.handleSuggestionsAccept(ctx, args)
	case "suggestions_reject":
		return s.handleSuggestionsReject(args)

	// Views
	case "overlay_render":
		return s.handleOverlayRender(args)
	case "annotation_crop":
		return s.handleAnnotationCrop(args)
	case "mask_export":
		return s.handleMaskExport(args)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments into v. Missing arguments decode as
// an empty object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

type pointArg struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func toPoints(in []pointArg) []image.Point {
	out := make([]image.Point, len(in))
	for i, p := range in {
		out[i] = image.Pt(p.X, p.Y)
	}
	return out
}

// activeImage returns the active session, its key, and the decoded slice.
func (s *Server) activeImage() (*session.Session, session.SliceKey, image.Image, error) {
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, key, nil, err
	}
	img, err := s.cache.LoadSlice(key.Image, key.Slice)
	if err != nil {
		return nil, key, nil, err
	}
	return sess, key, img, nil
}

// === Image and class handlers ===

type imageOpenArgs struct {
	Path    string `json:"path"`
	Slice   int    `json:"slice"`
	Resolve string `json:"resolve"`
}

type imageOpenResult struct {
	Image       string            `json:"image"`
	Slice       int               `json:"slice"`
	Slices      int               `json:"slices"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Format      string            `json:"format"`
	BitDepth    int               `json:"bit_depth"`
	HasAlpha    bool              `json:"has_alpha"`
	Annotations int               `json:"annotations"`
	Restored    bool              `json:"restored"`
	Resolved    session.ChangeSet `json:"resolved"`
}

func (s *Server) handleImageOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidArgs)
	}
	res, err := session.ParseResolution(a.Resolve)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	info, err := imaging.LoadImageInfo(a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.LoadSlice(a.Path, a.Slice)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	key := session.SliceKey{Image: a.Path, Slice: a.Slice}

	var opts []session.Option
	var restoredClasses []annotation.Class
	restored := false
	if !s.ws.Has(key) {
		stored, err := s.storage.Load(ctx, key.String())
		if err != nil {
			s.log.Warn("failed to load annotations", zap.String("key", key.String()), zap.Error(err))
		}
		if stored != nil {
			restoredClasses = s.reconcileClasses(stored)
			opts = append(opts, session.WithStore(stored))
			restored = true
		}
	}

	prev, prevKey, prevErr := s.ws.Active()
	sess, resolved, err := s.ws.Open(key, b.Dx(), b.Dy(), res, opts...)
	if err != nil {
		return nil, err
	}
	for _, c := range restoredClasses {
		s.ws.Classes().Set(c.Name, c.ID)
	}
	s.infos[a.Path] = info
	if prevErr == nil {
		s.changed(ctx, prevKey, prev, resolved)
	}
	s.log.Info("slice opened", zap.String("key", key.String()),
		zap.Int("width", b.Dx()), zap.Int("height", b.Dy()), zap.Bool("restored", restored))

	return imageOpenResult{
		Image:       a.Path,
		Slice:       a.Slice,
		Slices:      info.Slices,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Format:      info.Format,
		BitDepth:    info.BitDepth,
		HasAlpha:    info.HasAlpha,
		Annotations: sess.Store().Len(),
		Restored:    restored,
		Resolved:    resolved,
	}, nil
}

// reconcileClasses fits the category ids of a restored store to the class
// map. A class already registered takes its registered id. An unknown class
// keeps its stored id unless another class holds it, in which case it gets
// the next free id. Records are rewritten in place to match. The returned
// classes are not registered yet; the caller does that once the slice opens.
func (s *Server) reconcileClasses(store *annotation.Store) []annotation.Class {
	classes := s.ws.Classes()
	taken := make(map[int]string)
	for _, c := range classes.Classes() {
		taken[c.ID] = c.Name
	}
	next := classes.NextID()

	var added []annotation.Class
	rewrite := make(map[string][]annotation.Annotation)
	for name, list := range store.All() {
		if len(list) == 0 {
			continue
		}
		id, ok := classes.Lookup(name)
		if !ok {
			id = list[0].CategoryID
			if owner, used := taken[id]; id < 1 || (used && owner != name) {
				id = next
			}
			taken[id] = name
			next = max(next, id+1)
			added = append(added, annotation.Class{Name: name, ID: id})
		}
		for i, a := range list {
			if a.CategoryID == id {
				continue
			}
			fixed := slices.Clone(list)
			for j := i; j < len(fixed); j++ {
				fixed[j].CategoryID = id
			}
			rewrite[name] = fixed
			break
		}
	}
	if len(rewrite) > 0 {
		store.Replace(rewrite)
	}
	return added
}

type classArgs struct {
	Name string `json:"name"`
}

type classInfo struct {
	Name  string `json:"name"`
	ID    int    `json:"id"`
	Color string `json:"color"`
}

func (s *Server) handleClassAdd(args json.RawMessage) (interface{}, error) {
	var a classArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	id, created, err := s.ws.AddClass(a.Name)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"class":   classInfo{Name: a.Name, ID: id, Color: imaging.ClassHex(id)},
		"created": created,
	}, nil
}

func (s *Server) handleClassSelect(args json.RawMessage) (interface{}, error) {
	var a classArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.ws.SelectClass(a.Name); err != nil {
		return nil, err
	}
	return map[string]interface{}{"active_class": s.ws.ActiveClass()}, nil
}

func (s *Server) handleClassList() (interface{}, error) {
	classes := s.ws.Classes().Classes()
	out := make([]classInfo, 0, len(classes))
	for _, c := range classes {
		out = append(out, classInfo{Name: c.Name, ID: c.ID, Color: imaging.ClassHex(c.ID)})
	}
	return map[string]interface{}{
		"classes":      out,
		"active_class": s.ws.ActiveClass(),
	}, nil
}

// === Brush and eraser handlers ===

type brushSetArgs struct {
	PaintRadius  int `json:"paint_radius"`
	EraserRadius int `json:"eraser_radius"`
}

func (s *Server) handleBrushSet(args json.RawMessage) (interface{}, error) {
	var a brushSetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.PaintRadius != 0 {
		if err := s.ws.SetBrushRadius(a.PaintRadius); err != nil {
			return nil, err
		}
	}
	if a.EraserRadius != 0 {
		if err := s.ws.SetEraserRadius(a.EraserRadius); err != nil {
			return nil, err
		}
	}
	paint, eraser := s.ws.Radii()
	return map[string]int{"paint_radius": paint, "eraser_radius": eraser}, nil
}

type strokeArgs struct {
	Points []pointArg `json:"points"`
	Radius int        `json:"radius"`
}

func (s *Server) handleStroke(args json.RawMessage, erase bool) (interface{}, error) {
	var a strokeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Radius < 0 {
		return nil, fmt.Errorf("%w: %d", session.ErrInvalidRadius, a.Radius)
	}
	points := toPoints(a.Points)
	var err error
	if erase {
		err = s.ws.Erase(points, a.Radius)
	} else {
		err = s.ws.Paint(points, a.Radius)
	}
	if err != nil {
		return nil, err
	}
	paint, eraseMask := s.ws.PendingMasks()
	pending := paint
	if erase {
		pending = eraseMask
	}
	pixels := 0
	if pending != nil {
		pixels = pending.Count()
	}
	return map[string]int{"points": len(points), "pending_pixels": pixels}, nil
}

type commitResult struct {
	Changes     session.ChangeSet `json:"changes"`
	Annotations int               `json:"annotations"`
}

func (s *Server) handlePaintCommit(ctx context.Context) (interface{}, error) {
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	cs, err := s.ws.CommitPaint()
	if err != nil {
		return nil, err
	}
	if cs.Dropped {
		s.log.Info("paint dropped: no active class", zap.String("key", key.String()))
	}
	s.changed(ctx, key, sess, cs)
	return commitResult{Changes: cs, Annotations: sess.Store().Len()}, nil
}

func (s *Server) handleEraseCommit(ctx context.Context) (interface{}, error) {
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	cs, err := s.ws.CommitErase()
	if err != nil {
		return nil, err
	}
	s.changed(ctx, key, sess, cs)
	return commitResult{Changes: cs, Annotations: sess.Store().Len()}, nil
}

func (s *Server) handleDiscard(erase bool) (interface{}, error) {
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	buffer := "paint"
	if erase {
		buffer = "erase"
		sess.DiscardErase()
	} else {
		sess.DiscardPaint()
	}
	s.repaint(key, buffer)
	return map[string]bool{"pending_paint": sess.PendingPaint() != nil, "pending_erase": sess.PendingErase() != nil}, nil
}

type editStatus struct {
	Active       bool   `json:"active"`
	Image        string `json:"image,omitempty"`
	Slice        int    `json:"slice"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	BitDepth     int    `json:"bit_depth,omitempty"`
	HasAlpha     bool   `json:"has_alpha"`
	ActiveClass  string `json:"active_class"`
	PaintRadius  int    `json:"paint_radius"`
	EraserRadius int    `json:"eraser_radius"`
	PendingPaint int    `json:"pending_paint_pixels"`
	PendingErase int    `json:"pending_erase_pixels"`
	HasPending   bool   `json:"has_pending_edits"`
	Suggestions  int    `json:"suggestions"`
	Annotations  int    `json:"annotations"`
	ClassesInUse int    `json:"classes_in_use"`
	Classes      int    `json:"classes_registered"`
}

func (s *Server) handleEditStatus() (interface{}, error) {
	st := editStatus{ActiveClass: s.ws.ActiveClass(), Classes: s.ws.Classes().Len()}
	st.PaintRadius, st.EraserRadius = s.ws.Radii()

	sess, key, err := s.ws.Active()
	if errors.Is(err, session.ErrNoActiveImage) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	st.Active = true
	st.Image, st.Slice = key.Image, key.Slice
	st.Width, st.Height = sess.Size()
	if info := s.infos[key.Image]; info != nil {
		st.BitDepth, st.HasAlpha = info.BitDepth, info.HasAlpha
	}
	if m := sess.PendingPaint(); m != nil {
		st.PendingPaint = m.Count()
	}
	if m := sess.PendingErase(); m != nil {
		st.PendingErase = m.Count()
	}
	st.HasPending = sess.HasPendingEdits()
	st.Suggestions = len(sess.Suggestions())
	st.Annotations = sess.Store().Len()
	st.ClassesInUse = len(sess.Store().Classes())
	return st, nil
}

// === Annotation handlers ===

type annotationsListArgs struct {
	Class string `json:"class"`
}

func (s *Server) handleAnnotationsList(args json.RawMessage) (interface{}, error) {
	var a annotationsListArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, _, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	store := sess.Store()
	if a.Class != "" {
		list := store.Get(a.Class)
		if list == nil {
			list = []annotation.Annotation{}
		}
		return map[string]interface{}{"annotations": map[string][]annotation.Annotation{a.Class: list}, "count": len(list)}, nil
	}
	return map[string]interface{}{"annotations": store, "count": store.Len()}, nil
}

type addPolygonArgs struct {
	Class  string     `json:"class"`
	Points []pointArg `json:"points"`
}

func (s *Server) handleAddPolygon(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a addPolygonArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	cs, err := sess.AddPolygon(a.Class, toPoints(a.Points))
	if err != nil {
		return nil, err
	}
	s.changed(ctx, key, sess, cs)
	return commitResult{Changes: cs, Annotations: sess.Store().Len()}, nil
}

type addRectangleArgs struct {
	Class  string `json:"class"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleAddRectangle(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a addRectangleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	box := annotation.BBox{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
	cs, err := sess.AddRectangle(a.Class, box)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, key, sess, cs)
	return commitResult{Changes: cs, Annotations: sess.Store().Len()}, nil
}

type idArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleAnnotationDelete(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, key, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	cs, err := sess.Delete(a.ID)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, key, sess, cs)
	return commitResult{Changes: cs, Annotations: sess.Store().Len()}, nil
}

// === View handlers ===

type overlayArgs struct {
	Scale       float64  `json:"scale"`
	ShowNumbers *bool    `json:"show_numbers"`
	FillOpacity *float64 `json:"fill_opacity"`
}

func (s *Server) handleOverlayRender(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, _, img, err := s.activeImage()
	if err != nil {
		return nil, err
	}
	opts := imaging.OverlayOptions{
		FillOpacity: s.fillOpacity,
		ShowNumbers: true,
		Scale:       a.Scale,
	}
	if a.FillOpacity != nil {
		opts.FillOpacity = *a.FillOpacity
	}
	if a.ShowNumbers != nil {
		opts.ShowNumbers = *a.ShowNumbers
	}
	if class := s.ws.ActiveClass(); class != "" {
		opts.PaintClassID, _ = s.ws.Classes().Lookup(class)
	}
	pending := imaging.Pending{Paint: sess.PendingPaint(), Erase: sess.PendingErase()}
	return imaging.RenderOverlay(img, sess.Store(), pending, opts)
}

type cropArgs struct {
	ID      string  `json:"id"`
	Padding *int    `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleAnnotationCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, _, img, err := s.activeImage()
	if err != nil {
		return nil, err
	}
	ann, ok := sess.Store().Find(a.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", annotation.ErrNotFound, a.ID)
	}
	padding := 10
	if a.Padding != nil {
		padding = *a.Padding
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	return imaging.CropAnnotation(img, ann, padding, a.Scale)
}

type maskExportArgs struct {
	Which string `json:"which"`
	ID    string `json:"id"`
}

func (s *Server) handleMaskExport(args json.RawMessage) (interface{}, error) {
	var a maskExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	sess, _, err := s.ws.Active()
	if err != nil {
		return nil, err
	}
	switch a.Which {
	case "paint", "erase":
		m := sess.PendingPaint()
		if a.Which == "erase" {
			m = sess.PendingErase()
		}
		if m == nil {
			return nil, fmt.Errorf("no pending %s strokes", a.Which)
		}
		return imaging.EncodeMask(m)
	case "annotation":
		m, err := sess.AnnotationMask(a.ID)
		if err != nil {
			return nil, err
		}
		return imaging.EncodeMask(m)
	default:
		return nil, fmt.Errorf("%w: which must be paint, erase or annotation, got %q", ErrInvalidArgs, a.Which)
	}
}
